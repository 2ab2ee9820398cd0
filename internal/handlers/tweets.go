package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// TweetHandler implements the tweet endpoints.
type TweetHandler struct {
	Tweets TweetService
}

type tweetRequest struct {
	Content string `json:"content" validate:"required,max=280"`
}

func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	tweet, err := h.Tweets.Create(ctx, viewerID(r), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweets, err := h.Tweets.ListByOwner(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, tweets, "Tweets fetched successfully")
}

func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	tweet, err := h.Tweets.Update(ctx, viewerID(r), chi.URLParam(r, "tweetId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, tweet, "Tweet updated successfully")
}

func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Tweets.Delete(ctx, viewerID(r), chi.URLParam(r, "tweetId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, struct{}{}, "Tweet deleted successfully")
}
