package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Comments CommentService
	Views    ViewService
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// List handles GET /api/v1/comments/{videoId}?page=&limit=.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := pageFromQuery(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	result, err := h.Views.VideoComments(ctx, chi.URLParam(r, "videoId"), viewerID(r), page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, result, "Comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Comments.Create(ctx, viewerID(r), chi.URLParam(r, "videoId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Comments.Update(ctx, viewerID(r), chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Comments.Delete(ctx, viewerID(r), chi.URLParam(r, "commentId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, struct{}{}, "Comment deleted successfully")
}
