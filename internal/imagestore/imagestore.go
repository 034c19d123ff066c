// Package imagestore normalizes report photos and stores them in object storage.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/health"
	"github.com/campuslostfound/lostfound/internal/model"
)

const (
	// MaxUploadBytes caps accepted uploads before decoding.
	MaxUploadBytes = 5 << 20
	maxDimension   = 1600
	jpegQuality    = 85
	contentType    = "image/jpeg"
)

// ImageStore persists an encoded image under key and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// New selects the adapter configured by cfg.ImageStore.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.ImageStore {
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	case "local":
		return NewLocalStore(cfg.ImageDir, cfg.PublicBaseURL+LocalPathPrefix)
	default:
		return nil, fmt.Errorf("unsupported IMAGE_STORE: %s", cfg.ImageStore)
	}
}

// ObjectKey names a user's upload: "<userId>/<unixMillis>.jpg".
func ObjectKey(userID string, at time.Time) string {
	return fmt.Sprintf("%s/%d.jpg", userID, at.UnixMilli())
}

// Normalize decodes an uploaded image, applies EXIF orientation, fits it inside
// 1600x1600 and re-encodes it as JPEG. Oversized or undecodable input is a validation error.
func Normalize(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", model.ErrValidation, MaxUploadBytes)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", model.ErrValidation, err)
	}
	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Uploader ties normalization, naming and storage together.
type Uploader struct {
	store ImageStore
	now   func() time.Time
}

func NewUploader(s ImageStore) *Uploader {
	return &Uploader{store: s, now: time.Now}
}

// Upload stores r for userID and returns the image reference to put on a report.
func (u *Uploader) Upload(ctx context.Context, userID string, r io.Reader) (string, error) {
	data, err := Normalize(r)
	if err != nil {
		return "", err
	}
	return u.store.Put(ctx, ObjectKey(userID, u.now()), data, contentType)
}

// HealthPing forwards to the backing store when it can be pinged.
func (u *Uploader) HealthPing(ctx context.Context) error {
	if p, ok := u.store.(health.Pinger); ok {
		return p.HealthPing(ctx)
	}
	return nil
}
