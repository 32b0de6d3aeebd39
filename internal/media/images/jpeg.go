package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// JPEGQuality is the quality used when re-encoding uploads.
const JPEGQuality = 90

// ErrUnsupportedImage is returned when the input cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// Decode decodes JPEG, PNG, GIF or WebP data.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, format, nil
}

// DetectFormat reads only the image header and reports its format. Data that
// is not a JPEG, PNG, GIF or WebP image yields ErrUnsupportedImage.
func DetectFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return format, nil
}

// EncodeJPEG encodes img as JPEG at the given quality. Transparent areas
// are flattened onto white since JPEG has no alpha channel.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
		img = flat
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ToJPEG decodes any supported image and re-encodes it as JPEG quality 90.
// The decoded image is returned too, so callers can derive a BlurHash
// without decoding twice.
func ToJPEG(data []byte) ([]byte, image.Image, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	out, err := EncodeJPEG(img, JPEGQuality)
	if err != nil {
		return nil, nil, err
	}
	return out, img, nil
}
