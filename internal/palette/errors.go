package palette

import (
	"errors"
	"fmt"
)

// DuplicateColorError is returned when a colour is registered twice.
type DuplicateColorError struct {
	Color    RGB
	Label    string
	Existing string
}

func (e *DuplicateColorError) Error() string {
	return fmt.Sprintf("yarn color %s already added (as %s)", e.Color, describe(e.Existing))
}

// UnknownColorError is returned when a pixel colour has no registry entry.
type UnknownColorError struct {
	Color RGB
}

func (e *UnknownColorError) Error() string {
	return fmt.Sprintf("missing color %s", e.Color)
}

// CarrierUnavailableError is returned when a colour is known but its yarn is
// not loaded on the machine.
type CarrierUnavailableError struct {
	Color RGB
	Label string
}

func (e *CarrierUnavailableError) Error() string {
	return fmt.Sprintf("color %s (%s) is not on the machine; go put it there", e.Color, describe(e.Label))
}

// ParseError is returned when an external carrier mapping is malformed.
type ParseError struct {
	Source string
	Reason error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to read carrier mapping: %v", e.Reason)
	}
	return fmt.Sprintf("failed to read carrier mapping from '%s': %v", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

func describe(label string) string {
	if label == "" {
		return "unlabelled"
	}
	return label
}

// IsDuplicateColor reports whether err is or wraps a *DuplicateColorError.
func IsDuplicateColor(err error) bool {
	var target *DuplicateColorError
	return errors.As(err, &target)
}

// IsUnknownColor reports whether err is or wraps an *UnknownColorError.
func IsUnknownColor(err error) bool {
	var target *UnknownColorError
	return errors.As(err, &target)
}

// IsCarrierUnavailable reports whether err is or wraps a
// *CarrierUnavailableError.
func IsCarrierUnavailable(err error) bool {
	var target *CarrierUnavailableError
	return errors.As(err, &target)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}
