package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/physai/textbook-backend/internal/auth"
	"github.com/physai/textbook-backend/internal/rag"
)

type QueryHandler struct {
	orchestrator *rag.Orchestrator
	tokens       *auth.TokenService
}

func NewQueryHandler(orchestrator *rag.Orchestrator, tokens *auth.TokenService) *QueryHandler {
	return &QueryHandler{orchestrator: orchestrator, tokens: tokens}
}

type queryRequest struct {
	Question string `json:"question"`
}

// Ask answers one question. Authentication is optional: a missing token means
// an anonymous query, but a token that is present and invalid is rejected so
// the caller knows to re-authenticate instead of silently losing
// personalization.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if r.Header.Get("Authorization") != "" {
		if token == "" {
			writeError(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}
		if _, err := h.tokens.Verify(token); err != nil {
			writeError(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(req.Question)) < 3 {
		writeError(w, "question must be at least 3 characters long", http.StatusBadRequest)
		return
	}

	answer, err := h.orchestrator.Answer(r.Context(), req.Question, token)
	if err != nil {
		if errors.Is(err, rag.ErrAnswerGeneration) {
			writeError(w, "could not generate an answer, please retry", http.StatusBadGateway)
			return
		}
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, answer, http.StatusOK)
}
