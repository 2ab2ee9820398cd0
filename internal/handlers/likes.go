package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidstream/backend/internal/ledger"
	"github.com/vidstream/backend/internal/models"
)

// LikeHandler implements like toggles and the liked-videos listing.
type LikeHandler struct {
	Ledger Toggler
	Views  ViewService
}

type likeResponse struct {
	IsLiked bool         `json:"isLiked"`
	Like    *models.Like `json:"like,omitempty"`
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, ledger.KindVideo, chi.URLParam(r, "videoId"))
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, ledger.KindComment, chi.URLParam(r, "commentId"))
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, ledger.KindTweet, chi.URLParam(r, "tweetId"))
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	liked, err := h.Views.LikedVideos(ctx, viewerID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, liked, "Liked videos fetched successfully")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind ledger.Kind, target string) {
	ctx := r.Context()
	outcome, err := h.Ledger.Toggle(ctx, viewerID(r), kind, target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if outcome.Removed {
		respondOK(ctx, w, http.StatusOK, likeResponse{IsLiked: false}, "Unliked "+string(kind))
		return
	}
	like := outcome.Record.Like()
	respondOK(ctx, w, http.StatusOK, likeResponse{IsLiked: true, Like: &like}, "Liked "+string(kind))
}
