package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/pipeline"
)

const multipartMemory = 32 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// decodeJSON reads the request body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidArgument("request body is required")
		}
		return apperr.InvalidArgument("invalid request body")
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.InvalidArgument("invalid request")
	}
	return apperr.InvalidArgument("%s", validationMessage(fieldErrs[0]))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// pageFromQuery reads ?page= and ?limit=; absent values take the defaults.
func pageFromQuery(r *http.Request) (pipeline.Page, error) {
	var page pipeline.Page
	for name, dst := range map[string]*int{"page": &page.Number, "limit": &page.Limit} {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Page{}, apperr.InvalidArgument("%s must be a number", name)
		}
		*dst = n
	}
	return page.Normalize(), nil
}

func viewerID(r *http.Request) string {
	return auth.UserIDFromContext(r.Context())
}

// parseMultipart caps the body at limit bytes and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.InvalidArgument("upload exceeds %d bytes", tooLarge.Limit)
		}
		return apperr.InvalidArgument("invalid multipart form")
	}
	return nil
}

// uploads tracks the multipart files opened while serving one request.
type uploads []multipart.File

// open returns the uploaded file for field, or nil when it is absent.
func (u *uploads) open(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperr.InvalidArgument("invalid %s upload", field)
	}
	*u = append(*u, file)
	return file, header, nil
}

func (u uploads) Close() {
	for _, f := range u {
		_ = f.Close()
	}
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
