// Package imaging normalises uploaded pictures and favicons into square PNGs.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"regexp"

	"github.com/jarne/linkleopard/internal/storage"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultSize = 64
	ProfileSize = 512
	MaxSize     = 2048

	// MaxPixels bounds the decoded size of an input image. Compressed
	// formats can declare huge canvases in a few kilobytes.
	MaxPixels = 40_000_000

	PrefixFavicon = "favicon"
	PrefixProfile = "profile"

	ContentType = "image/png"
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrInvalidSize  = errors.New("invalid image size")
)

// Process center-crops img to a square and scales it to size x size.
// A size of zero or less selects DefaultSize.
func Process(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidSize, size, MaxSize)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, centerSquare(src.Bounds()), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := min(w, h)
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

var reIllegalPrefixChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ObjectName returns "<prefix>-<uuid>.png", or "<uuid>.png" without a prefix.
func ObjectName(prefix string) string {
	prefix = reIllegalPrefixChars.ReplaceAllString(prefix, "")
	if prefix == "" {
		return uuid.NewString() + ".png"
	}
	return prefix + "-" + uuid.NewString() + ".png"
}

type Options struct {
	Size   int
	Prefix string
}

// Ingester processes images and hands the result to a storage backend.
type Ingester struct {
	store storage.Store
}

func NewIngester(store storage.Store) *Ingester {
	return &Ingester{store: store}
}

func (in *Ingester) Store() storage.Store {
	return in.store
}

// Save returns the storage reference of the processed image.
func (in *Ingester) Save(ctx context.Context, data []byte, opts Options) (string, error) {
	out, err := Process(data, opts.Size)
	if err != nil {
		return "", err
	}
	return in.store.Put(ctx, ObjectName(opts.Prefix), out, ContentType)
}
