// Package httputil provides small helpers for writing consistent JSON
// responses across the HTTP handlers. Error helpers never leak internal
// detail to farmer-facing callers; partner-facing helpers may name the
// failing field.
package httputil
