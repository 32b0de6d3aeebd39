package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
	"github.com/findshroom/findshroom-server/internal/recognition"
)

type stubRecognizer struct {
	result *recognition.Result
	err    error
	calls  int
}

func (s *stubRecognizer) Name() string { return "stub" }

func (s *stubRecognizer) Recognize(context.Context, []byte) (*recognition.Result, error) {
	s.calls++
	return s.result, s.err
}

func TestRecognitionService_Recognize(t *testing.T) {
	env := setupTest(t)
	rec := &stubRecognizer{result: &recognition.Result{
		Attributes: recognition.Attributes{Name: "Porcini", IsEdible: true},
		Backend:    "stub",
	}}
	svc := NewRecognitionService(rec, nil, env.catalog, nil)

	res, err := svc.Recognize(context.Background(), 1, pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "Porcini", res.Attributes.Name)
	assert.Equal(t, "stub", svc.Backend())
}

func TestRecognitionService_Recognize_Failure(t *testing.T) {
	env := setupTest(t)
	rec := &stubRecognizer{err: errors.New("HTTP 503: model loading")}
	svc := NewRecognitionService(rec, nil, env.catalog, nil)

	_, err := svc.Recognize(context.Background(), 1, pngBytes(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRecognitionFailed)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 502, de.HTTPStatus())
}

func TestRecognitionService_Recognize_EmptyImage(t *testing.T) {
	env := setupTest(t)
	rec := &stubRecognizer{}
	svc := NewRecognitionService(rec, nil, env.catalog, nil)

	_, err := svc.Recognize(context.Background(), 1, nil)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Zero(t, rec.calls)
}

func TestRecognitionService_Recognize_NotAnImage(t *testing.T) {
	env := setupTest(t)
	rec := &stubRecognizer{result: &recognition.Result{}}
	svc := NewRecognitionService(rec, nil, env.catalog, nil)

	_, err := svc.Recognize(context.Background(), 1, []byte("this is a text file, not a photo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.NotErrorIs(t, err, domainerrors.ErrRecognitionFailed)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 400, de.HTTPStatus())
	assert.Zero(t, rec.calls)
}

func TestRecognitionService_Recognize_RateLimited(t *testing.T) {
	env := setupTest(t)
	rec := &stubRecognizer{result: &recognition.Result{}}
	limiter := ratelimit.PerMinute(2)
	t.Cleanup(limiter.Stop)
	svc := NewRecognitionService(rec, limiter, env.catalog, nil)
	ctx := context.Background()

	for range 2 {
		_, err := svc.Recognize(ctx, 7, pngBytes(t))
		require.NoError(t, err)
	}
	_, err := svc.Recognize(ctx, 7, pngBytes(t))
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	// Limits are per user.
	_, err = svc.Recognize(ctx, 8, pngBytes(t))
	assert.NoError(t, err)
	assert.Equal(t, 3, rec.calls)
}

func TestRecognitionService_SaveRecognized(t *testing.T) {
	env := setupTest(t)
	u := env.user(t, "alice")
	svc := NewRecognitionService(&stubRecognizer{}, nil, env.catalog, nil)

	m, err := svc.SaveRecognized(context.Background(), u, SaveRecognizedRequest{
		Attributes: recognition.Attributes{
			Name:           "Chanterelle",
			ScientificName: "Cantharellus cibarius",
			IsEdible:       true,
			Habitat:        "Mossy forest",
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "Mossy forest", m.Habitat)

	stored, err := env.catalog.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEdible)
}
