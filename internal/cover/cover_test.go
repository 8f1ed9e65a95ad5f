package cover

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

var red = color.NRGBA{R: 255, A: 255}

func solid(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	return img
}

func pngURI(t *testing.T, mime string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeOutput(t *testing.T, c Cover) image.Image {
	t.Helper()
	prefix := "data:image/webp;base64,"
	require.True(t, strings.HasPrefix(c.DataURI, prefix), c.DataURI[:min(len(c.DataURI), 40)])
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(c.DataURI, prefix))
	require.NoError(t, err)
	img, err := webp.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func alpha(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func TestIngestLetterboxesWideImage(t *testing.T) {
	c, err := Ingest(pngURI(t, "image/png", 600, 400))
	require.NoError(t, err)

	img := decodeOutput(t, c)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())

	// 600x400 scales to 300x200 and sits between two 100px transparent bands.
	assert.Zero(t, alpha(img, 150, 10))
	assert.Zero(t, alpha(img, 150, 390))
	assert.Equal(t, uint32(0xffff), alpha(img, 150, 200))
	r, g, b, _ := img.At(150, 200).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
	assert.Less(t, b, uint32(0x1000))

	assert.Equal(t, "image/png", c.SourceMIME)
	assert.Equal(t, ".png", c.Extension())
	assert.NotEmpty(t, c.Source)
}

func TestIngestPillarboxesTallImage(t *testing.T) {
	c, err := Ingest(pngURI(t, "image/png", 100, 800))
	require.NoError(t, err)

	img := decodeOutput(t, c)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())

	// 100x800 scales to 50x400, centered horizontally.
	assert.Zero(t, alpha(img, 10, 200))
	assert.Zero(t, alpha(img, 290, 200))
	assert.Equal(t, uint32(0xffff), alpha(img, 150, 200))
}

func TestIngestUpscalesSmallImage(t *testing.T) {
	c, err := Ingest(pngURI(t, "image/png", 30, 40))
	require.NoError(t, err)

	img := decodeOutput(t, c)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())
	for _, p := range []image.Point{{5, 5}, {150, 200}, {294, 394}} {
		assert.Equal(t, uint32(0xffff), alpha(img, p.X, p.Y), p)
	}
}

func TestIngestJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(300, 400), nil))
	body := base64.StdEncoding.EncodeToString(buf.Bytes())

	for _, mime := range []string{"image/jpeg", "image/jpg", "IMAGE/JPEG"} {
		c, err := Ingest("data:" + mime + ";base64," + body)
		require.NoError(t, err, mime)
		assert.Equal(t, "image/jpeg", c.SourceMIME)
		assert.Equal(t, image.Rect(0, 0, Width, Height), decodeOutput(t, c).Bounds())
	}
}

func TestIngestIsDeterministic(t *testing.T) {
	uri := pngURI(t, "image/png", 123, 77)
	a, err := Ingest(uri)
	require.NoError(t, err)
	b, err := Ingest(uri)
	require.NoError(t, err)
	assert.Equal(t, a.DataURI, b.DataURI)
}

func TestIngestErrors(t *testing.T) {
	var gifBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, solid(10, 10), nil))
	gifBody := base64.StdEncoding.EncodeToString(gifBuf.Bytes())

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"empty", "", ErrInvalidImageData},
		{"not a data uri", "hello world", ErrInvalidImageData},
		{"missing base64 marker", "data:image/png,AAAA", ErrInvalidImageData},
		{"gif declared", "data:image/gif;base64," + gifBody, ErrUnsupportedImageFormat},
		{"webp declared", "data:image/webp;base64,UklGRg==", ErrUnsupportedImageFormat},
		{"text declared", "data:text/plain;base64,aGVsbG8=", ErrUnsupportedImageFormat},
		{"bad base64", "data:image/png;base64,@@@@", ErrInvalidImageData},
		{"gif content declared png", "data:image/png;base64," + gifBody, ErrInvalidImageData},
		{"text content declared png", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image")), ErrInvalidImageData},
		{"truncated png", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00")), ErrInvalidImageData},
		{"too large", "data:image/png;base64," + strings.Repeat("A", MaxEncodedSize+1), ErrImageTooLarge},
		{"too large beats unsupported content", "data:image/jpeg;base64," + strings.Repeat("A", MaxEncodedSize+4), ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Ingest(tt.payload)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, c.DataURI)
		})
	}
}

func TestIngestRejectsOwnOutput(t *testing.T) {
	c, err := Ingest(pngURI(t, "image/png", 40, 40))
	require.NoError(t, err)
	_, err = Ingest(c.DataURI)
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)
}

func TestFitKeepsAspectOnTransparentCanvas(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		opaque      []image.Point
		transparent []image.Point
	}{
		{"wide", 900, 300, []image.Point{{0, 200}, {299, 200}}, []image.Point{{0, 0}, {299, 399}, {150, 100}}},
		{"tall", 50, 400, []image.Point{{150, 0}, {150, 399}}, []image.Point{{0, 0}, {299, 399}, {100, 200}}},
		{"exact", 300, 400, []image.Point{{0, 0}, {299, 399}}, nil},
		{"small", 3, 4, []image.Point{{0, 0}, {150, 200}, {299, 399}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := fit(solid(tt.w, tt.h))
			require.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())
			for _, p := range tt.opaque {
				assert.Equal(t, uint32(0xffff), alpha(img, p.X, p.Y), p)
			}
			for _, p := range tt.transparent {
				assert.Zero(t, alpha(img, p.X, p.Y), p)
			}
		})
	}
}

func TestEncodeProducesLosslessWebP(t *testing.T) {
	src := fit(solid(60, 80))
	out, err := encode(src)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimetype.Detect(out).String())

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
	r, g, b, a := img.At(150, 200).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})
}
