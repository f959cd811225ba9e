// Package revenue turns recorded clicks and valid conversions into partner
// earnings. Pricing comes from an injected table (platform CPC/CPA plus
// per-offer overrides), never from hard-coded values. Recomputation for a
// pending (partner, period) overwrites; payments already marked paid are
// never modified.
package revenue
