package domain

import (
	"strings"
	"time"
)

// Tier is the closed set of subscription plan codes the client understands.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// TierFromCode narrows a backend plan code to the closed tier set. Unknown
// codes map to TierFree with ok=false so callers can log the mismatch.
func TierFromCode(code string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(code))) {
	case TierFree:
		return TierFree, true
	case TierBasic:
		return TierBasic, true
	case TierPremium:
		return TierPremium, true
	default:
		return TierFree, false
	}
}

// BillingCycle is the billing cadence of a paid plan.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// PurchaseProvider identifies the external payment provider.
type PurchaseProvider string

const (
	ProviderApple  PurchaseProvider = "apple"
	ProviderGoogle PurchaseProvider = "google"
)

// Plan is a backend-defined subscription offering. Code is narrowed to the
// tier enumeration at the client boundary.
type Plan struct {
	Code         Tier    `json:"code"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PriceMonthly float64 `json:"priceMonthly"`
	PriceYearly  float64 `json:"priceYearly"`
}

// Subscription is the user's current billing state as reported by the
// backend. The client does not own or validate it.
type Subscription struct {
	ID                string       `json:"id"`
	Status            string       `json:"status"`
	BillingCycle      BillingCycle `json:"billingCycle"`
	CurrentPeriodEnd  *time.Time   `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool         `json:"cancelAtPeriodEnd"`
}

// Limits are the per-resource and per-feature caps of the current plan.
type Limits struct {
	MaxChildren      int  `json:"maxChildren"`
	MaxFavorites     int  `json:"maxFavorites"`
	MaxSavedSearches int  `json:"maxSavedSearches"`
	AdvancedFilters  bool `json:"advancedFilters"`
	Notifications    bool `json:"notifications"`
}

// Usage holds the current consumption counters matching Limits.
type Usage struct {
	Children      int `json:"children"`
	Favorites     int `json:"favorites"`
	SavedSearches int `json:"savedSearches"`
}

// PurchaseVerification is forwarded verbatim to the verify/restore endpoints.
type PurchaseVerification struct {
	ProviderTransactionID string           `json:"providerTransactionId"`
	Provider              PurchaseProvider `json:"provider"`
	PlanCode              string           `json:"planCode,omitempty"`
	BillingCycle          BillingCycle     `json:"billingCycle,omitempty"`
	PeriodEnd             *time.Time       `json:"periodEnd,omitempty"`
}
