package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"momentumAPI/internal/verification"
	"momentumAPI/middleware"
	"momentumAPI/services"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// POST /api/v1/challenges/{id}/verify - Verify today's completion
//
// The metric sample window can take a while on a cold cache, so this handler
// gets a longer timeout than the rest of the API.
func (h *VerificationHandler) VerifyToday(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	var evidence verification.Evidence
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&evidence); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.verificationService.VerifyToday(ctx, clerkID, challengeID, evidence)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChallengeNotFound), errors.Is(err, services.ErrUserNotFound):
			middleware.ObserveVerification("not_found")
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrNotParticipant):
			middleware.ObserveVerification("not_participant")
			respondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrChallengeExpired):
			middleware.ObserveVerification("expired")
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, verification.ErrInvalidEvidence):
			middleware.ObserveVerification("invalid_evidence")
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, verification.ErrProviderUnavailable):
			middleware.ObserveVerification("provider_unavailable")
			respondWithError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, services.ErrConcurrentModification):
			middleware.ObserveVerification("conflict")
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			middleware.ObserveVerification("error")
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	middleware.ObserveVerification(string(result.Status))
	respondWithJSON(w, http.StatusOK, result)
}
