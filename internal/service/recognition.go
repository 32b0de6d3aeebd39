package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/media/images"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
	"github.com/findshroom/findshroom-server/internal/recognition"
)

// RecognitionService identifies mushrooms in photos and turns results into
// catalog entries.
type RecognitionService struct {
	recognizer recognition.Recognizer
	limiter    *ratelimit.KeyedRateLimiter
	catalog    *CatalogService
	logger     *slog.Logger
}

// NewRecognitionService creates a recognition service. limiter may be nil
// to disable per-user limits.
func NewRecognitionService(
	recognizer recognition.Recognizer,
	limiter *ratelimit.KeyedRateLimiter,
	catalog *CatalogService,
	logger *slog.Logger,
) *RecognitionService {
	return &RecognitionService{
		recognizer: recognizer,
		limiter:    limiter,
		catalog:    catalog,
		logger:     orDiscard(logger),
	}
}

// Recognize identifies the mushroom in image on behalf of userID. Input that
// is not a decodable image is a VALIDATION error and never reaches the
// backend. A backend failure is a RECOGNITION_FAILED error. Unparseable
// backend text is not a failure and comes back as a degraded result.
func (s *RecognitionService) Recognize(ctx context.Context, userID int64, image []byte) (*recognition.Result, error) {
	if len(image) == 0 {
		return nil, domainerrors.Validation("image is required")
	}
	if _, err := images.DetectFormat(image); err != nil {
		return nil, domainerrors.Validation("file is not a supported image, use JPEG, PNG, GIF or WebP").WithCause(err)
	}
	if s.limiter != nil && !s.limiter.Allow(strconv.FormatInt(userID, 10)) {
		return nil, domainerrors.RateLimited("too many recognition requests, try again in a minute")
	}

	result, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		return nil, domainerrors.RecognitionFailed(err)
	}

	s.logger.Info("photo recognized",
		"user_id", userID,
		"backend", result.Backend,
		"name", result.Attributes.Name,
		"degraded", result.Degraded,
	)
	return result, nil
}

// SaveRecognizedRequest turns a recognition result into a catalog entry.
type SaveRecognizedRequest struct {
	Attributes recognition.Attributes `json:"attributes"`
	ImageRef   string                 `json:"image_ref,omitempty"`
}

// SaveRecognized stores a recognition result as a new catalog entry.
func (s *RecognitionService) SaveRecognized(ctx context.Context, actor *domain.User, req SaveRecognizedRequest) (*domain.Mushroom, error) {
	a := req.Attributes
	return s.catalog.Save(ctx, actor, SaveMushroomRequest{
		Name:            a.Name,
		ScientificName:  a.ScientificName,
		Description:     a.Description,
		IsEdible:        a.IsEdible,
		ImageRef:        req.ImageRef,
		Habitat:         a.Habitat,
		Season:          a.Season,
		Characteristics: a.Characteristics,
	})
}

// Backend names the recognizer in use.
func (s *RecognitionService) Backend() string {
	return s.recognizer.Name()
}
