package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"momentumAPI/internal/store"
)

const defaultActivityLimit = 50

type ActivityHandler struct {
	store store.Store
}

func NewActivityHandler(st store.Store) *ActivityHandler {
	return &ActivityHandler{store: st}
}

// GET /api/v1/activity?limit=N - Recent activity feed, newest first
func (h *ActivityHandler) GetRecentActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	activities, err := h.store.RecentActivities(ctx, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}
