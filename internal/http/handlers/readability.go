package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/http/respond"
	"github.com/policynav/policynav/internal/middleware"
	"github.com/policynav/policynav/pkg/readability"
)

// ReadabilityHandler scores submitted text for logged-in users.
type ReadabilityHandler struct {
	analyzer *readability.Analyzer
	tokens   *auth.TokenManager
}

// NewReadabilityHandler constructs the handler.
func NewReadabilityHandler(analyzer *readability.Analyzer, tokens *auth.TokenManager) *ReadabilityHandler {
	return &ReadabilityHandler{analyzer: analyzer, tokens: tokens}
}

// Register attaches the analyzer route to the mux.
func (h *ReadabilityHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/readability", middleware.Session(h.tokens, h.handleAnalyze))
}

func (h *ReadabilityHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	metrics, err := h.analyzer.Analyze(req.Text)
	if err != nil {
		if errors.Is(err, readability.ErrTextTooShort) {
			respond.Error(w, http.StatusBadRequest, "text is too short (min 50 chars)")
			return
		}
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "readability metrics", map[string]any{
		"metrics": metrics,
		"level":   gradeLevel(metrics.AverageGrade()),
	})
}

func gradeLevel(avgGrade float64) string {
	switch {
	case avgGrade <= 6:
		return "Beginner (Elementary)"
	case avgGrade <= 10:
		return "Intermediate (Middle School)"
	case avgGrade <= 14:
		return "Advanced (High School/College)"
	default:
		return "Expert (Professional/Academic)"
	}
}
