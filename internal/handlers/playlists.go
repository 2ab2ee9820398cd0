package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PlaylistHandler implements the playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistService
}

type playlistRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=1000"`
}

func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Playlists.Create(ctx, viewerID(r), req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, playlist, "Playlist created successfully")
}

func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.Playlists.Get(ctx, chi.URLParam(r, "playlistId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, playlist, "Playlist fetched successfully")
}

// ListByUser handles GET /api/v1/playlist/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlists, err := h.Playlists.ListByOwner(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, playlists, "Playlists fetched successfully")
}

func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Playlists.Update(ctx, viewerID(r), chi.URLParam(r, "playlistId"), req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, playlist, "Playlist updated successfully")
}

func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Playlists.Delete(ctx, viewerID(r), chi.URLParam(r, "playlistId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, struct{}{}, "Playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.Playlists.AddVideo(ctx, viewerID(r), chi.URLParam(r, "playlistId"), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, playlist, "Video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.Playlists.RemoveVideo(ctx, viewerID(r), chi.URLParam(r, "playlistId"), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, playlist, "Video removed from playlist")
}
