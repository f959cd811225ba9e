// Package targeting selects and orders the offers a farm should see.
//
// All functions here are pure: eligibility matching and variant assignment
// depend only on their inputs, so repeated calls for the same (offer, farm)
// pair yield identical results across processes and restarts. Side effects
// (recording impressions, counters) belong to the interaction service and
// are invoked explicitly by callers.
package targeting
