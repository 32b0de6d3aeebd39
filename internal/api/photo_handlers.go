package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/findshroom/findshroom-server/internal/http/response"
)

// handleUploadPhoto stores a marker or catalog photo and returns its reference
// and BlurHash placeholder.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := GetUserID(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	data, err := readUpload(w, r, "file")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	photo, err := s.services.Photo.Upload(ctx, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("Photo uploaded",
		"user_id", userID,
		"ref", photo.Ref,
		"size", photo.Size,
	)
	response.Created(w, photo, s.logger)
}

// handleGetPhoto serves a stored photo as JPEG with a content-hash ETag.
func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := GetUserID(ctx); err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	ref := chi.URLParam(r, "ref")
	data, err := s.services.Photo.Get(ctx, ref)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if etag, err := s.services.Photo.ETag(ref); err == nil {
		etag = `"` + etag + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", CachePhoto)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
