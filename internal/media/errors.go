package media

import "errors"

var (
	// ErrInvalidFile indicates an upload failed type or size validation.
	ErrInvalidFile = errors.New("invalid media file")
	// ErrStorage indicates the object store rejected an upload.
	ErrStorage = errors.New("media storage failure")
)
