package api

import (
	"fmt"
	"net/http"

	"github.com/physai/textbook-backend/pkg/ollama"
	"github.com/physai/textbook-backend/pkg/retrieval"
)

type SystemHandler struct {
	retriever *retrieval.Client
	generator *ollama.Client
}

func NewSystemHandler(retriever *retrieval.Client, generator *ollama.Client) *SystemHandler {
	return &SystemHandler{retriever: retriever, generator: generator}
}

// HealthHandler reports liveness plus the reachability of both collaborators.
// The service stays "ok" while a collaborator is down: auth and profile
// endpoints keep working without them.
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := func(err error) string {
		if err != nil {
			return "unreachable"
		}
		return "ok"
	}

	resp := map[string]string{
		"status":  "ok",
		"service": "textbook-backend",
	}
	if h.retriever != nil {
		resp["retrieval"] = status(h.retriever.Health(r.Context()))
	}
	if h.generator != nil {
		resp["generation"] = status(h.generator.Health(r.Context()))
	}

	writeJSON(w, resp, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","buildTime":"%s"}`, version, buildTime)
	}
}
