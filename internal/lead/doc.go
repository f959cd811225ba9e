// Package lead handles public inquiry submissions from the lead form.
// Throttling is the caller's problem (the API layer applies the
// sliding-window limiter); this package owns validation, persistence
// and event emission.
package lead
