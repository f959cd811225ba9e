package domain

// Domain events are explicit, typed records published by services after a
// state change commits. External collaborators (notification dispatch, CRM
// sync) subscribe to them instead of hooking into saves.

// InteractionRecorded is emitted for every non-deduplicated interaction.
type InteractionRecorded struct {
	Interaction Interaction
}

func (InteractionRecorded) Name() string { return "interaction.recorded" }

// ConversionAccepted is emitted when a webhook conversion is ingested for
// the first time, along with the attribution interaction it produced.
type ConversionAccepted struct {
	Event       ConversionEvent
	Interaction Interaction
}

func (ConversionAccepted) Name() string { return "conversion.accepted" }

// ConversionParked is emitted when a conversion could not be attributed
// (unknown or foreign offer) and was stored for manual reconciliation.
type ConversionParked struct {
	Event  ConversionEvent
	Reason string
}

func (ConversionParked) Name() string { return "conversion.parked" }

// PaymentComputed is emitted after the revenue calculator writes a pending
// payment for a (partner, period).
type PaymentComputed struct {
	Payment PartnerPayment
}

func (PaymentComputed) Name() string { return "payment.computed" }

// LeadSubmitted is emitted for every accepted public lead submission.
type LeadSubmitted struct {
	Lead Lead
}

func (LeadSubmitted) Name() string { return "lead.submitted" }
