// Package conversion ingests partner conversion webhooks exactly once.
//
// Authentication uses the partner's active webhook key; replay safety comes
// from the storage-level uniqueness of (partner, idempotency key), so the
// guarantee holds across service instances without in-process locks.
// Conversions referencing unknown offers are parked (stored unprocessed)
// for manual reconciliation instead of being dropped.
package conversion
