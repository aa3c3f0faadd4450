// Package media validates and stores uploaded featured images.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

var (
	ErrEmpty           = errors.New("empty upload")
	ErrTooLarge        = errors.New("upload exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// maxDecodePixels bounds the pixel count of an image that will be decoded.
// The decoder allocates the full bitmap the header declares.
const maxDecodePixels = 40_000_000

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStore writes uploaded images below a public directory
type ImageStore struct {
	dir       string
	prefix    string
	maxBytes  int64
	allowed   []string
	maxWidth  int
	maxHeight int
	now       func() time.Time
	log       zerolog.Logger
}

// NewImageStore creates an image store from media settings
func NewImageStore(cfg *config.MediaConfig, log zerolog.Logger) *ImageStore {
	return &ImageStore{
		dir:       cfg.UploadDir,
		prefix:    cfg.PublicPrefix,
		maxBytes:  cfg.MaxUploadBytes,
		allowed:   cfg.AllowedTypes,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		now:       time.Now,
		log:       log.With().Str("component", "media").Logger(),
	}
}

// Store validates data, downscales oversized jpeg/png images and writes the
// result under articles/YYYY/MM with a random name. It returns the public path.
func (s *ImageStore) Store(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	mtype := mimetype.Detect(data)
	mime := ""
	for _, allowed := range s.allowed {
		if mtype.Is(allowed) {
			mime = allowed
			break
		}
	}
	ext, known := extensions[mime]
	if !known {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	out, err := s.resize(data, mime)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	month := s.now().UTC().Format("2006/01")
	rel := path.Join("articles", month, uuid.NewString()+ext)
	full := filepath.Join(s.dir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(full, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.log.Info().
		Str("original", filename).
		Str("path", rel).
		Int("bytes", len(out)).
		Msg("Stored featured image")

	return s.prefix + "/" + rel, nil
}

// resize downscales jpeg and png images that exceed the configured bounds.
// WebP is stored as uploaded.
func (s *ImageStore) resize(data []byte, mime string) ([]byte, error) {
	if mime == "image/webp" || s.maxWidth <= 0 || s.maxHeight <= 0 {
		return data, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxDecodePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrUnsupportedType, cfg.Width, cfg.Height)
	}
	w, h := Fit(cfg.Width, cfg.Height, s.maxWidth, s.maxHeight)
	if w == cfg.Width && h == cfg.Height {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	switch mime {
	case "image/jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales w x h down to fit within maxW x maxH, keeping the aspect ratio.
// Images already inside the bounds are returned unchanged.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := float64(maxW) / float64(w)
	if r := float64(maxH) / float64(h); r < ratio {
		ratio = r
	}
	nw, nh := int(float64(w)*ratio), int(float64(h)*ratio)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
