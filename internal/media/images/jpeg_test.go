package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestToJPEG_ConvertsPNG(t *testing.T) {
	src := encodePNG(t, testImage(120, 80, color.RGBA{R: 200, G: 120, B: 40, A: 255}))

	out, img, err := ToJPEG(src)
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 120, img.Bounds().Dx())
}

func TestToJPEG_FlattensTransparency(t *testing.T) {
	src := encodePNG(t, testImage(16, 16, color.RGBA{}))

	out, _, err := ToJPEG(src)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestToJPEG_RejectsGarbage(t *testing.T) {
	_, _, err := ToJPEG([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(testImage(400, 300, color.RGBA{R: 90, G: 60, B: 30, A: 255}))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	small := resizeForBlurHash(testImage(400, 300, color.Black))
	assert.Equal(t, blurHashSize, small.Bounds().Dx())
	assert.Equal(t, 48, small.Bounds().Dy())
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat(encodePNG(t, testImage(4, 4, color.White)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = DetectFormat([]byte("plain text upload"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = DetectFormat(nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
