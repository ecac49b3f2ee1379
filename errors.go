package studyguide

import "errors"

var (
	// ErrEmptyUpload is returned when the uploads contain no text to study.
	ErrEmptyUpload = errors.New("uploads contain no text")

	// ErrUnknownUpload is returned when an upload ID is not (or no longer) cached.
	ErrUnknownUpload = errors.New("unknown upload")

	// ErrGuideNotFound is returned when no generated guide exists for an upload and subject.
	ErrGuideNotFound = errors.New("guide not found")
)
