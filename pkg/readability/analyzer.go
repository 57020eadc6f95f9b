package readability

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// MinTextLength is the shortest input worth scoring
const MinTextLength = 50

var ErrTextTooShort = errors.New("text is too short to analyze")

// Metrics holds the standard readability scores and the raw text statistics
// they derive from.
type Metrics struct {
	FleschReadingEase  float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade float64 `json:"flesch_kincaid_grade"`
	GunningFog         float64 `json:"gunning_fog"`
	SMOGIndex          float64 `json:"smog_index"`
	ColemanLiau        float64 `json:"coleman_liau"`
	Sentences          int     `json:"sentences"`
	Words              int     `json:"words"`
	Syllables          int     `json:"syllables"`
	ComplexWords       int     `json:"complex_words"`
	Chars              int     `json:"chars"`
}

// AverageGrade is the mean of the four grade-level indices, used to bucket a
// text into an overall difficulty level.
func (m *Metrics) AverageGrade() float64 {
	return (m.FleschKincaidGrade + m.GunningFog + m.SMOGIndex + m.ColemanLiau) / 4
}

type Analyzer struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewAnalyzer loads the English sentence tokenizer
func NewAnalyzer() (*Analyzer, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}

	return &Analyzer{tokenizer: tokenizer}, nil
}

// Analyze computes all metrics for a text
func (a *Analyzer) Analyze(text string) (*Metrics, error) {
	if len(text) < MinTextLength {
		return nil, ErrTextTooShort
	}

	words := strings.Fields(text)
	sentenceCount := len(a.tokenizer.Tokenize(text))
	if sentenceCount < 1 {
		sentenceCount = 1
	}

	var syllableTotal, complexWords, letters int
	for _, word := range words {
		s := countSyllables(word)
		syllableTotal += s
		if s >= 3 {
			complexWords++
		}
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters++
			}
		}
	}

	wordCount := len(words)
	if wordCount == 0 {
		return nil, ErrTextTooShort
	}

	wordsPerSentence := float64(wordCount) / float64(sentenceCount)
	syllablesPerWord := float64(syllableTotal) / float64(wordCount)

	m := &Metrics{
		Sentences:    sentenceCount,
		Words:        wordCount,
		Syllables:    syllableTotal,
		ComplexWords: complexWords,
		Chars:        len(text),
	}

	m.FleschReadingEase = round2(206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord)
	m.FleschKincaidGrade = round2(0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59)
	m.GunningFog = round2(0.4 * (wordsPerSentence + 100*float64(complexWords)/float64(wordCount)))
	m.SMOGIndex = round2(1.0430*math.Sqrt(float64(complexWords)*30/float64(sentenceCount)) + 3.1291)

	l := float64(letters) / float64(wordCount) * 100
	s := float64(sentenceCount) / float64(wordCount) * 100
	m.ColemanLiau = round2(0.0588*l - 0.296*s - 15.8)

	return m, nil
}

// countSyllables estimates syllables as vowel groups, with a silent-e
// adjustment. Every word counts as at least one syllable.
func countSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if word == "" {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}

	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}

	if count < 1 {
		count = 1
	}
	return count
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
