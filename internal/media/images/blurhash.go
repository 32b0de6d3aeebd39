package images

import (
	"fmt"
	"image"
	"os"

	"github.com/bbrks/go-blurhash"
)

// blurHashSize is the longest side of the thumbnail a BlurHash is computed from.
const blurHashSize = 64

// ComputeBlurHash generates a BlurHash string for a decoded photo.
// Uses 4x3 components, which gives a ~20-30 char hash for a landscape photo.
func ComputeBlurHash(img image.Image) (string, error) {
	// BlurHash is a low-resolution placeholder, so a small thumbnail is enough.
	thumbnail := resizeForBlurHash(img)

	hash, err := blurhash.Encode(4, 3, thumbnail)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// ComputeBlurHashFile generates a BlurHash for a photo on disk.
func ComputeBlurHashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	img, _, err := Decode(data)
	if err != nil {
		return "", err
	}
	return ComputeBlurHash(img)
}

// resizeForBlurHash creates a small thumbnail suitable for BlurHash computation.
// Uses simple nearest-neighbor scaling which is fast and sufficient for BlurHash.
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	// If image is already small enough, use it directly
	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	// Calculate target dimensions maintaining aspect ratio
	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = (srcHeight * blurHashSize) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = blurHashSize
		dstWidth = (srcWidth * blurHashSize) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	// Create destination image
	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	// Simple box scaling - fast and sufficient for BlurHash
	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
