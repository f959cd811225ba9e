package conversion

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conversion service layer.
var (
	ErrUnauthorized  = errors.New("invalid or missing webhook key")
	ErrOfferNotFound = errors.New("offer not found for partner")
	ErrKeyNotFound   = errors.New("no active webhook key")
)

// ValidationError reports a malformed payload field. Partner-facing: it
// names the field so the partner can debug, and nothing else.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}
