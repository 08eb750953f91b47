// Package imaging normalizes evidence photos attached to damaged returns.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// MaxSide bounds the longer side of a stored photo.
	MaxSide = 1600
	// MaxUploadBytes bounds a single uploaded photo.
	MaxUploadBytes = 10 << 20
	Quality        = 82
	ContentType    = "image/jpeg"
)

var ErrUnsupported = errors.New("unsupported photo format, only JPEG and PNG are accepted")
var ErrTooLarge = fmt.Errorf("photo exceeds %d MB", MaxUploadBytes>>20)

type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// PrepareEvidence sniffs the upload, decodes JPEG or PNG, shrinks it to fit
// MaxSide and re-encodes it as JPEG.
func PrepareEvidence(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	var img image.Image
	switch http.DetectContentType(data) {
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), MaxSide)
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return &Photo{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// Fit scales w×h down, keeping the aspect ratio, so neither side exceeds max.
func Fit(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
