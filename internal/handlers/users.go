package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidstream/backend/internal/accounts"
	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/models"
)

// UserHandler implements account and channel endpoints.
type UserHandler struct {
	Accounts       AccountService
	Views          ViewService
	MaxUploadBytes int64
}

type registerForm struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,max=128"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
}

// Register handles POST /api/v1/users/register (multipart: avatar, coverImage).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		respondError(ctx, w, err)
		return
	}

	form := registerForm{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
	}
	if err := validateStruct(&form); err != nil {
		respondError(ctx, w, err)
		return
	}

	var files uploads
	defer files.Close()

	avatar, err := h.image(r, &files, "avatar")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if avatar == nil {
		respondError(ctx, w, apperr.InvalidArgument("avatar file is required"))
		return
	}
	cover, err := h.image(r, &files, "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Accounts.Register(ctx, accounts.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		FullName: form.FullName,
		Password: form.Password,
		Avatar:   avatar,
		Cover:    cover,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	session, err := h.Accounts.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, session, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	h.Accounts.Logout(ctx, req.RefreshToken)
	respondOK(ctx, w, http.StatusOK, struct{}{}, "User logged out")
}

// Refresh handles POST /api/v1/users/refresh-token.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, map[string]any{"tokens": tokens}, "Access token refreshed")
}

func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Accounts.ChangePassword(ctx, viewerID(r), req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Accounts.Current(ctx, viewerID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, user, "Current user fetched successfully")
}

func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	user, err := h.Accounts.UpdateAccount(ctx, viewerID(r), req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, user, "Account details updated successfully")
}

func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Accounts.UpdateAvatar, "Avatar updated successfully")
}

func (h UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Accounts.UpdateCover, "Cover image updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Views.ChannelProfile(ctx, chi.URLParam(r, "username"), viewerID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history, err := h.Views.WatchHistory(ctx, viewerID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, history, "Watch history fetched successfully")
}

type imageUpdater func(ctx context.Context, userID string, image *accounts.Image) (models.User, error)

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update imageUpdater, message string) {
	ctx := r.Context()
	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		respondError(ctx, w, err)
		return
	}
	var files uploads
	defer files.Close()

	image, err := h.image(r, &files, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if image == nil {
		respondError(ctx, w, apperr.InvalidArgument("%s file is required", field))
		return
	}

	user, err := update(ctx, viewerID(r), image)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, user, message)
}

func (h UserHandler) image(r *http.Request, files *uploads, field string) (*accounts.Image, error) {
	file, header, err := files.open(r, field)
	if err != nil || file == nil {
		return nil, err
	}
	return &accounts.Image{Filename: header.Filename, ContentType: contentType(header), Body: file}, nil
}
