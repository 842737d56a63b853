package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	stdimage "image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
)

// MaxCardWidth is the widest an embedded card image is allowed to be.
const MaxCardWidth = 600

// PreviewWidth is the width used for GUI thumbnails.
const PreviewWidth = 320

// Load decodes a PNG, JPEG, GIF or BMP image from disk.
func Load(path string) (stdimage.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode decodes an image in any registered format.
func Decode(r io.Reader) (stdimage.Image, error) {
	img, _, err := stdimage.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Fit scales img down to maxWidth keeping its aspect ratio. Images that
// are already narrow enough are returned unchanged.
func Fit(img stdimage.Image, maxWidth int) stdimage.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth || maxWidth <= 0 {
		return img
	}

	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}

	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img stdimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// HTMLTag fits img to the card width and returns an <img> tag carrying it
// as a base64 data URI.
func HTMLTag(img stdimage.Image) (string, error) {
	data, err := EncodePNG(Fit(img, MaxCardWidth))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`<img src="data:image/png;base64,%s" style="max-width:100%%;margin:8px 0">`,
		base64.StdEncoding.EncodeToString(data)), nil
}
