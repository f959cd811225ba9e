package targeting

import (
	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// Matches evaluates an offer's targeting rule against a farm profile.
// The switch over rule kinds is exhaustive; an unrecognized kind (bad data
// from an older or newer writer) fails closed and logs an integrity
// warning instead of surfacing an error to the feed path.
func Matches(rule domain.TargetingRule, farm domain.FarmProfile) bool {
	switch rule.Kind {
	case domain.RuleAll:
		return true
	case domain.RuleRegion:
		for _, r := range rule.Regions {
			if r == farm.Region {
				return true
			}
		}
		return false
	case domain.RuleFlockSize:
		if rule.MinFlockSize != nil && farm.FlockSize < *rule.MinFlockSize {
			return false
		}
		if rule.MaxFlockSize != nil && farm.FlockSize > *rule.MaxFlockSize {
			return false
		}
		return true
	case domain.RuleMarketplaceActive:
		return farm.MarketplaceActive
	case domain.RuleGovernmentProgram:
		return farm.GovernmentProgram
	default:
		logger.Warn("unknown targeting rule kind, failing closed",
			"kind", string(rule.Kind), "farm_id", farm.ID)
		return false
	}
}
