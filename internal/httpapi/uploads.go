package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// multipartOverhead is the room left for form boundaries and headers on top of the file itself.
const multipartOverhead = 64 << 10

// uploadAvatar accepts a multipart "file" field and streams it to the avatar
// prefix. The response carries the download URL to put in profilePhotoUrl.
func (s *server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	if err := gateFromContext(ctx).Authorize(); err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}

	uploader := services.NewAvatarUploader(s.deps.Objects, s.deps.AvatarPrefix, s.deps.Policy, logger)
	limit := s.deps.Policy.MaxBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, err := formFile(r, limit)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// Start reports NoFileSelected for an uploader that never picked a file.
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.resp.handleServiceError(ctx, w, &services.ValidationError{FieldErrors: map[string]string{"size": "file is too large"}})
			return
		}
		s.resp.handleServiceError(ctx, w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	default:
		if err := uploader.Pick(file); err != nil {
			s.resp.handleServiceError(ctx, w, err)
			return
		}
	}

	url, err := uploader.Run(ctx, nil)
	if err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}
	s.resp.writeJSON(ctx, w, http.StatusCreated, models.UploadResponse{Status: "success", URL: url, Bytes: uploader.State().TotalBytes})
}

func formFile(r *http.Request, limit int64) (services.File, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return services.File{}, err
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		return services.File{}, err
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return services.File{}, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return services.FileFromBytes(header.Filename, contentType, data), nil
}
