package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/physai/textbook-backend/internal/models"
	"github.com/physai/textbook-backend/pkg/repository"
)

type ProfileHandler struct {
	profiles repository.ProfileRepo
}

func NewProfileHandler(profiles repository.ProfileRepo) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	profile, err := h.profiles.GetByAccountID(r.Context(), accountID)
	if err != nil {
		logger.Error("profile fetch failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		writeError(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if profile == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}

	writeJSON(w, profile, http.StatusOK)
}

// updateProfileRequest carries a partial update: absent fields keep their
// stored values.
type updateProfileRequest struct {
	SoftwareExperience *string   `json:"software_experience,omitempty"`
	HardwareExperience *string   `json:"hardware_experience,omitempty"`
	Interests          *[]string `json:"interests,omitempty"`
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.GetByAccountID(r.Context(), accountID)
	if err != nil {
		logger.Error("profile fetch failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		writeError(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if profile == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}

	if req.SoftwareExperience != nil {
		software, err := models.ParseSoftwareExperience(*req.SoftwareExperience)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		profile.SoftwareExperience = software
	}
	if req.HardwareExperience != nil {
		hardware, err := models.ParseHardwareExperience(*req.HardwareExperience)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		profile.HardwareExperience = hardware
	}
	if req.Interests != nil {
		if len(*req.Interests) > models.MaxInterests {
			writeError(w, "too many interests", http.StatusBadRequest)
			return
		}
		profile.Interests = *req.Interests
	}

	if err := h.profiles.UpdateProfile(r.Context(), profile); err != nil {
		logger.Error("profile update failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		writeError(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	updated, err := h.profiles.GetByAccountID(r.Context(), accountID)
	if err != nil || updated == nil {
		// the update succeeded; fall back to the in-memory view
		updated = profile
	}

	writeJSON(w, updated, http.StatusOK)
}
