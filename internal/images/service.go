// Package images validates uploaded pictures, normalises them to bounded
// JPEGs and keeps them in a Store.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime"
	"regexp"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrInvalidContentType = errors.New("invalid content type")
	ErrTooLarge           = errors.New("image is too large")
	ErrInvalidImage       = errors.New("invalid image")
	ErrNotFound           = errors.New("image not found")
)

const jpegQuality = 95

var filenamePattern = regexp.MustCompile(`^[0-9a-f]{32}\.jpg$`)

// Store persists encoded images by filename.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	// Open returns ErrNotFound for a missing file.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete returns ErrNotFound for a missing file.
	Delete(ctx context.Context, name string) error
}

// Upload is an image received from a client.
type Upload struct {
	ContentType string
	Size        int64 // -1 when unknown
	Body        io.Reader
}

type Options struct {
	MaxWidth            int
	MaxHeight           int
	MaxBytes            int64
	AllowedContentTypes []string
}

type Service struct {
	store   Store
	opts    Options
	newName func() string
}

func NewService(store Store, opts Options) *Service {
	return &Service{
		store:   store,
		opts:    opts,
		newName: randomFilename,
	}
}

// Save validates the upload, downscales it to fit the configured bounds,
// re-encodes it as JPEG and stores it under a fresh random filename.
func (s *Service) Save(ctx context.Context, up Upload) (string, error) {
	if !s.allowed(up.ContentType) {
		return "", ErrInvalidContentType
	}
	if up.Size > s.opts.MaxBytes {
		return "", ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.opts.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return "", ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !detected.Is("image/jpeg") && !detected.Is("image/png") {
		return "", ErrInvalidImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrInvalidImage
	}

	encoded, err := s.normalize(img)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	name := s.newName()
	if err := s.store.Put(ctx, name, encoded); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return name, nil
}

// Open returns the stored image. Names that could not have been produced by
// Save are reported as ErrNotFound.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !ValidFilename(name) {
		return nil, ErrNotFound
	}
	return s.store.Open(ctx, name)
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if !ValidFilename(name) {
		return ErrNotFound
	}
	return s.store.Delete(ctx, name)
}

// ValidFilename reports whether name has the shape of a generated filename.
func ValidFilename(name string) bool {
	return filenamePattern.MatchString(name)
}

func (s *Service) allowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(s.opts.AllowedContentTypes, strings.ToLower(mediaType))
}

func (s *Service) normalize(img image.Image) ([]byte, error) {
	img = imaging.Fit(img, s.opts.MaxWidth, s.opts.MaxHeight, imaging.Lanczos)

	// JPEG has no alpha channel
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flattened := imaging.Overlay(background, img, image.Point{}, 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flattened, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func randomFilename() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ".jpg"
}
