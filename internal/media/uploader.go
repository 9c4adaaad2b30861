// Package media stages multipart uploads on local disk, forwards them to the
// object store and probes video durations.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
)

// ObjectStore persists uploaded bytes and removes them again by location.
type ObjectStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}

// DurationProber reports the length of a local media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Asset is an uploaded file.
type Asset struct {
	URL      string
	Duration float64
}

// Uploader moves multipart files into the object store.
type Uploader struct {
	store    ObjectStore
	probe    DurationProber
	tempDir  string
	maxBytes int64
}

// NewUploader constructs an Uploader staging files under tempDir. probe may be nil.
func NewUploader(store ObjectStore, probe DurationProber, tempDir string, maxBytes int64) *Uploader {
	return &Uploader{store: store, probe: probe, tempDir: tempDir, maxBytes: maxBytes}
}

// Upload validates h, stages it to local disk and uploads it from there. The
// staged copy is removed whether or not the upload succeeds. Video durations
// that cannot be probed are recorded as zero.
func (u *Uploader) Upload(ctx context.Context, kind Kind, h *multipart.FileHeader) (Asset, error) {
	ctx, span := logging.StartSpan(ctx, "media.Upload")
	defer span.End()

	ext, err := ValidateFileHeader(h, kind, u.maxBytes)
	if err != nil {
		return Asset{}, err
	}

	local, err := u.stage(h, ext)
	if err != nil {
		span.Fail(err)
		return Asset{}, err
	}
	defer func() {
		if rmErr := os.Remove(local); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove staged upload", slog.String("path", local), slog.Any("error", rmErr))
		}
	}()

	var asset Asset
	if kind == KindVideo && u.probe != nil {
		duration, err := u.probe.Duration(ctx, local)
		if err != nil {
			logging.FromContext(ctx).Warn("probe video duration", slog.Any("error", err))
		} else {
			asset.Duration = duration
		}
	}

	f, err := os.Open(local)
	if err != nil {
		return Asset{}, fmt.Errorf("open staged upload: %w", err)
	}
	defer f.Close()

	key := path.Join(string(kind)+"s", uuid.NewString()+ext)
	location, err := u.store.Save(ctx, key, f)
	if err != nil {
		span.Fail(err)
		return Asset{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	asset.URL = location
	span.SetAttributes("key", key, "bytes", h.Size)
	return asset, nil
}

// Remove deletes a previously uploaded asset. Failures are logged, not returned.
func (u *Uploader) Remove(ctx context.Context, location string) {
	if location == "" {
		return
	}
	if err := u.store.Delete(ctx, location); err != nil {
		logging.FromContext(ctx).Warn("delete stored media", slog.String("location", location), slog.Any("error", err))
	}
}

func (u *Uploader) stage(h *multipart.FileHeader, ext string) (string, error) {
	src, err := h.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", h.Filename, err)
	}
	defer src.Close()

	if u.tempDir != "" {
		if err := os.MkdirAll(u.tempDir, 0o755); err != nil {
			return "", fmt.Errorf("create upload dir: %w", err)
		}
	}
	dst, err := os.CreateTemp(u.tempDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create staged upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("stage upload %s: %w", h.Filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close staged upload: %w", err)
	}
	return dst.Name(), nil
}
