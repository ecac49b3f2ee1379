package document

import "errors"

var (
	// ErrUnsupportedFormat is returned for uploads that are not .txt, .pdf or .docx.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoUploads is returned when Extract is called without uploads.
	ErrNoUploads = errors.New("no uploads provided")

	// ErrInvalidChunkSize is returned for a non-positive chunk size or an overlap not smaller than it.
	ErrInvalidChunkSize = errors.New("invalid chunk size")
)
