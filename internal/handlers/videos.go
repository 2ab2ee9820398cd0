package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/videos"
	"github.com/vidstream/backend/internal/views"
)

// VideoHandler implements the video catalogue endpoints.
type VideoHandler struct {
	Videos         VideoService
	MaxUploadBytes int64
}

type videoListQuery struct {
	SortBy   string `json:"sortBy" validate:"omitempty,oneof=createdAt views duration title"`
	SortType string `json:"sortType" validate:"omitempty,oneof=asc desc"`
}

type videoDetailsForm struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

// List handles GET /api/v1/videos?query=&sortBy=&sortType=&userId=&page=&limit=.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := pageFromQuery(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	q := r.URL.Query()
	sort := videoListQuery{SortBy: q.Get("sortBy"), SortType: q.Get("sortType")}
	if err := validateStruct(&sort); err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Videos.List(ctx, views.VideoFilter{
		Query:    q.Get("query"),
		SortBy:   sort.SortBy,
		SortType: sort.SortType,
		UserID:   q.Get("userId"),
		ViewerID: viewerID(r),
	}, page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, result, "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos (multipart: videoFile, thumbnail).
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		respondError(ctx, w, err)
		return
	}
	form := videoDetailsForm{Title: r.FormValue("title"), Description: r.FormValue("description")}
	if err := validateStruct(&form); err != nil {
		respondError(ctx, w, err)
		return
	}

	var files uploads
	defer files.Close()

	video, err := media(r, &files, "videoFile")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	thumbnail, err := media(r, &files, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video == nil || thumbnail == nil {
		respondError(ctx, w, apperr.InvalidArgument("videoFile and thumbnail are required"))
		return
	}

	published, err := h.Videos.Publish(ctx, viewerID(r), videos.PublishInput{
		Title:       form.Title,
		Description: form.Description,
		Video:       video,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusCreated, published, "Video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Every fetch counts as a view.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Videos.Get(ctx, viewerID(r), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, video, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId} (multipart, thumbnail optional).
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		respondError(ctx, w, err)
		return
	}
	form := videoDetailsForm{Title: r.FormValue("title"), Description: r.FormValue("description")}
	if err := validateStruct(&form); err != nil {
		respondError(ctx, w, err)
		return
	}

	var files uploads
	defer files.Close()

	thumbnail, err := media(r, &files, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Update(ctx, viewerID(r), chi.URLParam(r, "videoId"), videos.UpdateInput{
		Title:       form.Title,
		Description: form.Description,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, video, "Video updated successfully")
}

func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Videos.Delete(ctx, viewerID(r), chi.URLParam(r, "videoId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, struct{}{}, "Video deleted successfully")
}

func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Videos.TogglePublish(ctx, viewerID(r), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, http.StatusOK, video, "Publish status toggled successfully")
}

func media(r *http.Request, files *uploads, field string) (*videos.Media, error) {
	file, header, err := files.open(r, field)
	if err != nil || file == nil {
		return nil, err
	}
	return &videos.Media{Filename: header.Filename, ContentType: contentType(header), Body: file}, nil
}
