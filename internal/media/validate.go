package media

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Kind classifies an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var allowedTypes = map[Kind]map[string]string{
	KindImage: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	},
	KindVideo: {
		"video/mp4":        ".mp4",
		"video/webm":       ".webm",
		"video/quicktime":  ".mov",
		"video/x-matroska": ".mkv",
	},
}

// ValidateFileHeader checks the declared type and size of an upload and
// returns the file extension used for its stored name.
func ValidateFileHeader(h *multipart.FileHeader, kind Kind, maxBytes int64) (string, error) {
	if h == nil {
		return "", fmt.Errorf("%w: missing file", ErrInvalidFile)
	}
	if h.Size <= 0 || (maxBytes > 0 && h.Size > maxBytes) {
		return "", fmt.Errorf("%w: %s size %d not allowed", ErrInvalidFile, h.Filename, h.Size)
	}

	types, ok := allowedTypes[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidFile, kind)
	}
	contentType, _, err := mime.ParseMediaType(h.Header.Get("Content-Type"))
	if err != nil {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(h.Filename)))
		contentType, _, _ = mime.ParseMediaType(contentType)
	}
	ext, ok := types[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s has content type %q, want %s", ErrInvalidFile, h.Filename, contentType, kind)
	}
	return ext, nil
}
