package common

import "errors"

// Error taxonomy shared by the pipeline components. Components wrap these with
// fmt.Errorf("%w: ...") and callers match them with errors.Is.
var (
	// ErrNetwork covers transport failures and non-success HTTP statuses.
	ErrNetwork = errors.New("network error")
	// ErrParse is returned when a response body is malformed.
	ErrParse = errors.New("parse error")
	// ErrExtraction is returned when a well-formed response lacks a required field.
	ErrExtraction = errors.New("extraction error")
	// ErrMissingAsset is returned when no background exists for a category.
	ErrMissingAsset = errors.New("missing asset")
	// ErrConfig is returned when the persisted configuration cannot be read.
	ErrConfig = errors.New("config error")
)
