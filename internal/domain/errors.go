package domain

import (
	"errors"
	"fmt"
)

// ErrNoSnapshot is returned by a snapshot store that has nothing saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// FetchError reports that the marker document could not be retrieved.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch markers from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports that the marker document does not have the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse markers from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DataError reports a single marker record that cannot become a feature.
type DataError struct {
	Name   string // marker name, may be empty
	Field  string
	Value  string
	Reason string
}

func (e *DataError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid marker: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid marker %q: %s %q: %s", e.Name, e.Field, e.Value, e.Reason)
}

// UserMessage returns text suitable for showing to a map visitor when the
// markers could not be loaded. Unknown errors get a generic message.
func UserMessage(err error) string {
	var fetchErr *FetchError
	var parseErr *ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "Trail markers could not be loaded right now. Please try again later."
	case errors.As(err, &parseErr):
		return "Trail marker data is unreadable. The map cannot show campsites or boat ramps."
	default:
		return "The trail map is unavailable."
	}
}
