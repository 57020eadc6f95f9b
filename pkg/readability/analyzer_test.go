package readability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer()
	require.NoError(t, err)
	return a
}

func TestAnalyze_TooShort(t *testing.T) {
	a := newTestAnalyzer(t)

	_, err := a.Analyze("Too short.")
	assert.ErrorIs(t, err, ErrTextTooShort)

	_, err = a.Analyze("")
	assert.ErrorIs(t, err, ErrTextTooShort)
}

func TestAnalyze_SimpleText(t *testing.T) {
	a := newTestAnalyzer(t)

	text := "The cat sat on the mat. The dog ran to the park. We like to play all day."
	m, err := a.Analyze(text)
	require.NoError(t, err)

	assert.Equal(t, 3, m.Sentences)
	assert.Equal(t, 18, m.Words)
	assert.Equal(t, len(text), m.Chars)
	assert.Zero(t, m.ComplexWords)

	// Monosyllabic short sentences score as very easy reading
	assert.Greater(t, m.FleschReadingEase, 90.0)
	assert.Less(t, m.FleschKincaidGrade, 3.0)
}

func TestAnalyze_ComplexTextScoresHarder(t *testing.T) {
	a := newTestAnalyzer(t)

	simple, err := a.Analyze("The cat sat on the mat. The dog ran to the park. We like to play all day.")
	require.NoError(t, err)

	complexText := "Institutional accountability necessitates comprehensive regulatory" +
		" frameworks governing organizational transparency. Multidimensional evaluation" +
		" methodologies facilitate systematic interpretation of administrative documentation."
	hard, err := a.Analyze(complexText)
	require.NoError(t, err)

	assert.Greater(t, hard.ComplexWords, 0)
	assert.Less(t, hard.FleschReadingEase, simple.FleschReadingEase)
	assert.Greater(t, hard.FleschKincaidGrade, simple.FleschKincaidGrade)
	assert.Greater(t, hard.GunningFog, simple.GunningFog)
	assert.Greater(t, hard.SMOGIndex, simple.SMOGIndex)
	assert.Greater(t, hard.ColemanLiau, simple.ColemanLiau)
}

func TestAverageGrade(t *testing.T) {
	m := &Metrics{
		FleschKincaidGrade: 8,
		GunningFog:         10,
		SMOGIndex:          9,
		ColemanLiau:        13,
	}
	assert.InDelta(t, 10.0, m.AverageGrade(), 0.001)
}

func TestAnalyze_NoTerminatorStillCountsOneSentence(t *testing.T) {
	a := newTestAnalyzer(t)

	m, err := a.Analyze(strings.Repeat("word ", 20))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.Sentences, 1)
	assert.Equal(t, 20, m.Words)
}

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"table", 2},
		{"make", 1},
		{"beautiful", 3},
		{"readability", 5},
		{"rhythm", 1},
		{"", 1},
		{"...", 1},
		{"Hello,", 2},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, countSyllables(tt.word))
		})
	}
}
