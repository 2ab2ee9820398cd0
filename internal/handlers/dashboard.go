package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DashboardHandler serves channel statistics and the caller's video dashboard.
type DashboardHandler struct {
	Views ViewService
}

// Stats handles GET /api/v1/dashboard/stats/{userId}. Without a userId it
// reports the caller's own channel.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		userID = viewerID(r)
	}
	stats, err := h.Views.ChannelStats(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos?page=&limit=.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := pageFromQuery(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	result, err := h.Views.ChannelVideos(ctx, viewerID(r), page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, result, "Channel videos fetched successfully")
}
