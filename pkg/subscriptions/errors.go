package subscriptions

// APIError is the uniform failure shape for subscription operations. Error()
// carries the user-facing message (the backend's reported error text when
// present, otherwise a fixed per-operation fallback); the original failure
// stays reachable through Unwrap.
type APIError struct {
	Op      string
	Message string
	Err     error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

// Fallback messages used when the backend supplies no error text.
const (
	fallbackPlans        = "Failed to fetch subscription plans"
	fallbackCurrent      = "Failed to fetch current subscription"
	fallbackLimits       = "Failed to fetch subscription limits"
	fallbackCheckLimit   = "Failed to check resource limit"
	fallbackCheckFeature = "Failed to check feature access"
	fallbackVerify       = "Failed to verify purchase"
	fallbackRestore      = "Failed to restore purchases"
	fallbackTrial        = "Failed to start trial"
	fallbackCancel       = "Failed to cancel subscription"
)
