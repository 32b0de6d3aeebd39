package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
)

// readUpload returns the image bytes of a request. Multipart bodies carry the
// image in field; a body sent with an image/* content type is used as-is.
func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, uploadError(err)
		}
		return checkUploadSize(data)
	}

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		return nil, uploadError(err)
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, domainerrors.Validationf("no file uploaded, use the %q field in a multipart form", field)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return checkUploadSize(data)
}

func checkUploadSize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("uploaded file is empty")
	}
	if len(data) > MaxUploadSize {
		return nil, domainerrors.Validation("file too large, maximum size is 10MB")
	}
	return data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domainerrors.Validation("file too large, maximum size is 10MB")
	}
	return domainerrors.Validation("failed to parse upload").WithCause(err)
}
