// Package cover normalizes uploaded book cover images. A cover arrives as a base64
// data URI, is checked against the accepted formats and size ceiling, fitted inside a
// fixed 300x400 frame and returned as a WebP data URI.
package cover

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// Width and Height are the dimensions of every normalized cover.
	Width  = 300
	Height = 400

	// MaxEncodedSize is the largest accepted base64 body, in characters.
	MaxEncodedSize = 8 << 20

	// OutputMIME is the mime type of every normalized cover.
	OutputMIME = "image/webp"
)

var (
	ErrInvalidImageData       = errors.New("invalid image data")
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrImageTooLarge          = errors.New("image too large")
)

// SupportedMIMETypes lists the declared mime types accepted in a data URI.
var SupportedMIMETypes = []string{"image/png", "image/jpeg", "image/jpg"}

var dataURIRX = regexp.MustCompile(`^data:([A-Za-z0-9.+-]+/[A-Za-z0-9.+-]+);base64,(.+)$`)

// Cover is the result of a successful ingestion.
type Cover struct {
	// DataURI is the normalized image, "data:image/webp;base64,...".
	DataURI string
	// Source holds the decoded bytes of the original upload.
	Source []byte
	// SourceMIME is the detected mime type of Source.
	SourceMIME string
}

// Extension returns the file extension matching the original upload's content.
func (c Cover) Extension() string {
	if m := mimetype.Lookup(c.SourceMIME); m != nil {
		return m.Extension()
	}
	return ""
}

// Ingest validates and normalizes a cover image. Validation errors wrap one of
// ErrInvalidImageData, ErrUnsupportedImageFormat or ErrImageTooLarge. Ingest does not
// touch the filesystem and returns identical output for identical input.
func Ingest(payload string) (Cover, error) {
	m := dataURIRX.FindStringSubmatch(strings.TrimSpace(payload))
	if m == nil {
		return Cover{}, ErrInvalidImageData
	}
	declared, body := strings.ToLower(m[1]), m[2]

	if !validator.In(declared, SupportedMIMETypes...) {
		return Cover{}, fmt.Errorf("%w: %s", ErrUnsupportedImageFormat, declared)
	}
	if len(body) > MaxEncodedSize {
		return Cover{}, fmt.Errorf("%w: %d bytes encoded, limit is %d", ErrImageTooLarge, len(body), MaxEncodedSize)
	}

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return Cover{}, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}

	detected := mimetype.Detect(raw)
	if !validator.Mime(detected, "image/png", "image/jpeg") {
		return Cover{}, fmt.Errorf("%w: content is %s", ErrInvalidImageData, detected.String())
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Cover{}, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}

	out, err := encode(fit(src))
	if err != nil {
		return Cover{}, err
	}

	return Cover{
		DataURI:    "data:" + OutputMIME + ";base64," + base64.StdEncoding.EncodeToString(out),
		Source:     raw,
		SourceMIME: detected.String(),
	}, nil
}

// fit scales img to the largest size that fits inside Width x Height, enlarging
// small images, and centers it on a transparent canvas.
func fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tw, th := Width, Height
	// Compare w/h against Width/Height without floating point.
	if w*Height >= h*Width {
		th = max(1, h*Width/w)
	} else {
		tw = max(1, w*Height/h)
	}
	scaled := imaging.Resize(img, tw, th, imaging.Lanczos)
	canvas := imaging.New(Width, Height, color.NRGBA{})
	return imaging.PasteCenter(canvas, scaled)
}

// encode writes img as lossless WebP.
func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
