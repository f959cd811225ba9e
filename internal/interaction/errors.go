package interaction

import "errors"

// Sentinel errors for the interaction service layer.
var (
	ErrInvalidType  = errors.New("invalid interaction type")
	ErrMissingOffer = errors.New("offer id is required")
	ErrMissingFarm  = errors.New("farm id is required")
	ErrNotFound     = errors.New("interaction not found")
)
