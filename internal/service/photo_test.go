package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/media/images"
)

func newPhotoService(t *testing.T) *PhotoService {
	t.Helper()
	storage, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)
	return NewPhotoService(storage, nil)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := range 32 {
		for y := range 24 {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoService_UploadAndGet(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	up, err := svc.Upload(ctx, pngBytes(t))
	require.NoError(t, err)
	assert.True(t, id.IsPhotoRef(up.Ref))
	assert.NotEmpty(t, up.BlurHash)
	assert.Positive(t, up.Size)

	data, err := svc.Get(ctx, up.Ref)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2], "stored as JPEG")

	etag, err := svc.ETag(up.Ref)
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
}

func TestPhotoService_Upload_RejectsNonImage(t *testing.T) {
	svc := newPhotoService(t)

	_, err := svc.Upload(context.Background(), []byte("hello"))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestPhotoService_Get_NotFound(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, id.PhotoRef())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Get(ctx, "../secret")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
