package domain

import "errors"

var (
	// ErrSourceNotFound is returned when a source spreadsheet does not exist on disk
	ErrSourceNotFound = errors.New("source file not found")

	// ErrMissingColumn is returned when a required column cannot be identified
	ErrMissingColumn = errors.New("required column not found")

	// ErrUnsupportedFormat is returned for spreadsheet formats that cannot be read
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrEmptyTable is returned when a table has no rows at all
	ErrEmptyTable = errors.New("table has no rows")
)
