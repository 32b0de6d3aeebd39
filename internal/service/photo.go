package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/media/images"
)

// PhotoService stores uploaded photos as JPEG files.
type PhotoService struct {
	storage *images.Storage
	logger  *slog.Logger
}

// NewPhotoService creates a photo service.
func NewPhotoService(storage *images.Storage, logger *slog.Logger) *PhotoService {
	return &PhotoService{storage: storage, logger: orDiscard(logger)}
}

// UploadedPhoto describes a stored photo.
type UploadedPhoto struct {
	Ref      string `json:"ref"`
	BlurHash string `json:"blurhash,omitempty"`
	Size     int    `json:"size"`
}

// Upload normalizes data to JPEG, stores it under a fresh reference and
// computes its BlurHash placeholder.
func (s *PhotoService) Upload(_ context.Context, data []byte) (*UploadedPhoto, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("photo is empty")
	}

	jpeg, img, err := images.ToJPEG(data)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedImage) {
			return nil, domainerrors.Validation("photo must be a JPEG, PNG, GIF or WebP image")
		}
		return nil, fmt.Errorf("convert photo: %w", err)
	}

	ref := id.PhotoRef()
	if err := s.storage.Save(ref, jpeg); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	hash, err := images.ComputeBlurHash(img)
	if err != nil {
		// The placeholder is optional.
		s.logger.Warn("blurhash failed", "ref", ref, "error", err)
	}

	return &UploadedPhoto{Ref: ref, BlurHash: hash, Size: len(jpeg)}, nil
}

// Get returns the JPEG bytes of a stored photo.
func (s *PhotoService) Get(_ context.Context, ref string) ([]byte, error) {
	data, err := s.storage.Get(ref)
	if err != nil {
		if errors.Is(err, images.ErrInvalidRef) || errors.Is(err, images.ErrNotFound) {
			return nil, domainerrors.NotFound("photo not found")
		}
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}

// ETag returns a content hash usable as an HTTP ETag.
func (s *PhotoService) ETag(ref string) (string, error) {
	return s.storage.Hash(ref)
}
