package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrUnsupportedGranularity is returned before any document is touched
	// when the requested segmentation unit is not one of the known variants.
	ErrUnsupportedGranularity = errors.New("unsupported granularity")

	// ErrEncoding marks a document whose text is not valid UTF-8.
	ErrEncoding = errors.New("malformed text encoding")
)
