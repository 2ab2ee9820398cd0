package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidstream/backend/internal/ledger"
	"github.com/vidstream/backend/internal/models"
)

// SubscriptionHandler implements channel subscriptions.
type SubscriptionHandler struct {
	Ledger Toggler
	Views  ViewService
}

type subscriptionResponse struct {
	IsSubscribed bool                 `json:"isSubscribed"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	outcome, err := h.Ledger.Toggle(ctx, viewerID(r), ledger.KindChannel, chi.URLParam(r, "channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if outcome.Removed {
		respondOK(ctx, w, http.StatusOK, subscriptionResponse{}, "Unsubscribed successfully")
		return
	}
	sub := outcome.Record.Subscription()
	respondOK(ctx, w, http.StatusOK, subscriptionResponse{IsSubscribed: true, Subscription: &sub}, "Subscribed successfully")
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subs, err := h.Views.Subscribers(ctx, chi.URLParam(r, "channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, subs, "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channels, err := h.Views.SubscribedChannels(ctx, chi.URLParam(r, "subscriberId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, channels, "Subscribed channels fetched successfully")
}
