package revenue

// OfferPricing overrides the platform-wide rates for a single offer.
// Nil fields fall back to the defaults.
type OfferPricing struct {
	CPC *float64 `yaml:"cpc"`
	CPA *float64 `yaml:"cpa"`
}

// PricingTable carries the rates the calculator applies. It is built from
// configuration and injected; amounts are dollars.
type PricingTable struct {
	CPC      float64                 `yaml:"cpc"`
	CPA      float64                 `yaml:"cpa"`
	PerOffer map[string]OfferPricing `yaml:"per_offer"`
}

// ClickRate returns the CPC for an offer, honoring overrides.
func (t PricingTable) ClickRate(offerID string) float64 {
	if o, ok := t.PerOffer[offerID]; ok && o.CPC != nil {
		return *o.CPC
	}
	return t.CPC
}

// ConversionRate returns the CPA for an offer, honoring overrides.
func (t PricingTable) ConversionRate(offerID string) float64 {
	if o, ok := t.PerOffer[offerID]; ok && o.CPA != nil {
		return *o.CPA
	}
	return t.CPA
}
