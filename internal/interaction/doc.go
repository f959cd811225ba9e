// Package interaction records farmer behavior against served offers.
//
// The service layer owns the impression dedupe window, delegates counter
// updates to atomic storage increments, and publishes typed events for
// every recorded interaction. Repository implementations live in
// repository/postgres.
package interaction
