package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/physai/textbook-backend/api"
	"github.com/physai/textbook-backend/internal/auth"
	"github.com/physai/textbook-backend/internal/models"
	"github.com/physai/textbook-backend/pkg/repository/mock"
)

func TestProfileHandlers(t *testing.T) {
	tokens := auth.NewTokenService(testSecret, time.Hour)
	tokStr, err := tokens.Issue(9)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	newServer := func(profiles *mock.ProfileRepo) http.Handler {
		h := api.NewProfileHandler(profiles)
		mw := api.AuthMiddleware(tokens)
		mux := http.NewServeMux()
		mux.Handle("GET /profile", mw(http.HandlerFunc(h.GetProfile)))
		mux.Handle("PUT /profile", mw(http.HandlerFunc(h.UpdateProfile)))
		return mux
	}

	stored := func() *mock.ProfileRepo {
		return &mock.ProfileRepo{Stored: &models.Profile{
			ID:                 1,
			AccountID:          9,
			SoftwareExperience: models.SoftwareBeginner,
			HardwareExperience: models.HardwareNone,
			Interests:          []string{"robotics"},
		}}
	}

	t.Run("Get_Success", func(t *testing.T) {
		srv := newServer(stored())
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+tokStr)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
		}
		var p models.Profile
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatalf("unmarshal profile: %v", err)
		}
		if p.SoftwareExperience != models.SoftwareBeginner || len(p.Interests) != 1 {
			t.Fatalf("unexpected profile: %+v", p)
		}
	})

	t.Run("Get_NoToken", func(t *testing.T) {
		srv := newServer(stored())
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", w.Code)
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		srv := newServer(&mock.ProfileRepo{})
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+tokStr)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d", w.Code)
		}
	})

	t.Run("Update_Partial", func(t *testing.T) {
		repo := stored()
		srv := newServer(repo)
		body, _ := json.Marshal(map[string]any{"software_experience": "ADVANCED"})
		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tokStr)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
		}
		// untouched fields keep their stored values
		if repo.Stored.SoftwareExperience != models.SoftwareAdvanced {
			t.Fatalf("software experience not updated: %+v", repo.Stored)
		}
		if repo.Stored.HardwareExperience != models.HardwareNone || len(repo.Stored.Interests) != 1 {
			t.Fatalf("partial update touched other fields: %+v", repo.Stored)
		}
	})

	t.Run("Update_InvalidExperience", func(t *testing.T) {
		srv := newServer(stored())
		body, _ := json.Marshal(map[string]any{"hardware_experience": "WIZARD"})
		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tokStr)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", w.Code)
		}
	})

	t.Run("Update_TooManyInterests", func(t *testing.T) {
		srv := newServer(stored())
		interests := make([]string, models.MaxInterests+1)
		for i := range interests {
			interests[i] = "tag"
		}
		body, _ := json.Marshal(map[string]any{"interests": interests})
		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tokStr)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", w.Code)
		}
	})
}
