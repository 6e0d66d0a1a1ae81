package billing

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrEventAlreadyProcessed = errors.New("event already processed")
	ErrVersionConflict       = errors.New("subscription version conflict")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrMalformedEnvelope     = errors.New("malformed event envelope")
	ErrCheckoutNotAllowed    = errors.New("checkout not allowed in current state")
	ErrCancelNotAllowed      = errors.New("cancel not allowed in current state")
)

// Status is the authoritative subscription state of a dealership.
type Status string

const (
	StatusNone           Status = "none"
	StatusPendingPayment Status = "pending_payment"
	StatusActive         Status = "active"
	StatusPastDue        Status = "past_due"
	StatusCanceled       Status = "canceled"
	StatusExpired        Status = "expired"
)

// IsValid reports whether s is one of the closed set of states.
func (s Status) IsValid() bool {
	switch s {
	case StatusNone, StatusPendingPayment, StatusActive, StatusPastDue, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no provider event can move the record forward.
func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusExpired
}

// Plan is the billing plan of a subscription.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

// IsValid reports whether p is a known plan.
func (p Plan) IsValid() bool {
	return p == PlanMonthly || p == PlanAnnual
}

// SubscriptionRecord is the per-dealership subscription state. Status fields
// are owned exclusively by the state machine; nothing else writes them.
type SubscriptionRecord struct {
	DealershipID       string     `json:"dealership_id"`
	Status             Status     `json:"status"`
	Plan               Plan       `json:"plan,omitempty"`
	PeriodAnchor       *time.Time `json:"period_anchor,omitempty"`
	ProviderCustomer   string     `json:"provider_customer_id,omitempty"`
	ProviderSubRef     string     `json:"provider_subscription_id,omitempty"`
	CheckoutRef        string     `json:"checkout_ref,omitempty"`
	InitiatedBy        string     `json:"initiated_by,omitempty"`
	LastEventTimestamp time.Time  `json:"last_event_timestamp"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
