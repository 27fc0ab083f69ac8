package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

// DefaultMaxImageBytes is the upload ceiling (10 MiB).
const DefaultMaxImageBytes int64 = 10 << 20

var allowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
	"image/svg+xml",
	"image/x-icon",
	"image/heic",
	"image/heif",
}

var allowedImageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".heic": "image/heic",
	".heif": "image/heif",
}

const rejectMessage = "only image files are allowed: JPG, JPEG, PNG, GIF, WebP, BMP, TIFF, SVG, ICO, HEIC, HEIF"

// ImageService checks uploads against the size ceiling and the image
// allow-list before handing them to an ImageStore.
type ImageService struct {
	store    ports.ImageStore
	maxBytes int64
	log      zerolog.Logger
}

func NewImageService(store ports.ImageStore, maxBytes int64, log zerolog.Logger) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{store: store, maxBytes: maxBytes, log: log}
}

// MaxBytes is the configured upload ceiling.
func (s *ImageService) MaxBytes() int64 { return s.maxBytes }

// Save reads the upload fully (bounded by the ceiling), checks its type and
// stores it as <uuid><ext>. Nothing is written when a check fails.
func (s *ImageService) Save(ctx context.Context, up ports.ImageUpload) (string, error) {
	if up.Size > s.maxBytes {
		return "", domain.ErrImageTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.ErrImageTooLarge
	}
	if len(data) == 0 {
		return "", domain.NewValidationError("featuredImage", "image file is empty")
	}

	contentType, ext, ok := classifyImage(data, up.Filename, up.ContentType)
	if !ok {
		return "", domain.NewValidationError("featuredImage", rejectMessage)
	}

	name := uuid.NewString() + ext
	if err := s.store.Put(ctx, name, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	s.log.Info().Str("image", name).Str("content_type", contentType).Int("bytes", len(data)).Msg("image stored")
	return name, nil
}

// classifyImage accepts content whose sniffed type is on the allow-list.
// When sniffing is inconclusive the declared type and the file extension
// must both be allowed.
func classifyImage(data []byte, filename, declared string) (contentType, ext string, ok bool) {
	ext = strings.ToLower(filepath.Ext(filename))
	extType, extAllowed := allowedImageExts[ext]

	detected := mimetype.Detect(data)
	for _, t := range allowedImageTypes {
		if detected.Is(t) {
			if e := detected.Extension(); e != "" {
				ext = e
			}
			return detected.String(), ext, true
		}
	}

	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || !extAllowed || !isAllowedType(mediaType) {
		return "", "", false
	}
	return extType, ext, true
}

func isAllowedType(t string) bool {
	t = strings.ToLower(t)
	for _, a := range allowedImageTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Open returns a stored image. Names that could escape the store are
// reported as not found.
func (s *ImageService) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !validImageName(name) {
		return nil, "", domain.ErrImageNotFound
	}
	return s.store.Open(ctx, name)
}

func (s *ImageService) Remove(ctx context.Context, ref string) error {
	if ref == "" || domain.IsAbsoluteURL(ref) || !validImageName(ref) {
		return nil
	}
	return s.store.Delete(ctx, ref)
}

func validImageName(name string) bool {
	return name != "" &&
		!strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`) &&
		filepath.Base(name) == name
}
