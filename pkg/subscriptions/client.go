// Package subscriptions is the client for the subscription, entitlement and
// purchase-lifecycle API. Every operation is a single request/response round
// trip; the client caches nothing between calls.
package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kidsact-hq/campwatch/internal/domain"
	"github.com/kidsact-hq/campwatch/internal/logger"
	"github.com/kidsact-hq/campwatch/pkg/httpclient"
)

const (
	basePath = "/api/subscriptions"

	defaultTimeout = 15 * time.Second
)

// Client calls the subscription endpoints. Safe for concurrent use.
type Client struct {
	base string
	http httpclient.Client
}

// New builds a subscription client for the given base URL. A nil httpClient
// gets the default resty transport.
func New(baseURL string, httpClient httpclient.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
	}
}

// CurrentView combines subscription state, plan, limits, usage counters and
// trial status as returned by the current-subscription endpoint.
type CurrentView struct {
	Subscription       domain.Subscription
	Plan               domain.Plan
	Limits             domain.Limits
	Usage              domain.Usage
	IsTrialing         bool
	TrialDaysRemaining int
}

// LimitCheck is the result of a named resource limit check.
type LimitCheck struct {
	Resource string
	Allowed  bool
	Current  int
	Limit    int
}

// PurchaseResult is the updated state after verify.
type PurchaseResult struct {
	Subscription domain.Subscription
	Plan         domain.Plan
	Limits       domain.Limits
}

// RestoreResult is the updated state after restore, plus whether anything was
// actually restored.
type RestoreResult struct {
	PurchaseResult
	Restored bool
}

// TrialResult is the updated state after starting a trial.
type TrialResult struct {
	PurchaseResult
	TrialDaysRemaining int
}

// CancelResult is the updated state after cancellation.
type CancelResult struct {
	Plan   domain.Plan
	Limits domain.Limits
}

// Wire shapes -----------------------------------------------------------------

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type planWire struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PriceMonthly float64 `json:"priceMonthly"`
	PriceYearly  float64 `json:"priceYearly"`
}

type plansEnvelope struct {
	envelope
	Plans []planWire `json:"plans"`
}

type currentEnvelope struct {
	envelope
	Subscription       domain.Subscription `json:"subscription"`
	Plan               planWire            `json:"plan"`
	Limits             domain.Limits       `json:"limits"`
	Usage              domain.Usage        `json:"usage"`
	IsTrialing         bool                `json:"isTrialing"`
	TrialDaysRemaining int                 `json:"trialDaysRemaining"`
}

type limitsEnvelope struct {
	envelope
	Limits domain.Limits `json:"limits"`
}

type checkEnvelope struct {
	envelope
	Resource string `json:"resource"`
	Allowed  bool   `json:"allowed"`
	Current  int    `json:"current"`
	Limit    int    `json:"limit"`
}

type featureEnvelope struct {
	envelope
	Feature   string `json:"feature"`
	HasAccess bool   `json:"hasAccess"`
}

type purchaseEnvelope struct {
	envelope
	Subscription       domain.Subscription `json:"subscription"`
	Plan               planWire            `json:"plan"`
	Limits             domain.Limits       `json:"limits"`
	Restored           bool                `json:"restored"`
	TrialDaysRemaining int                 `json:"trialDaysRemaining"`
}

type cancelEnvelope struct {
	envelope
	Plan   planWire      `json:"plan"`
	Limits domain.Limits `json:"limits"`
}

// Operations --------------------------------------------------------------------

// Plans lists the available subscription plans.
func (c *Client) Plans(ctx context.Context) ([]domain.Plan, error) {
	var env plansEnvelope
	if err := c.get(ctx, "/plans", &env, "plans", fallbackPlans); err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(env.Plans))
	for _, w := range env.Plans {
		plans = append(plans, narrowPlan(w))
	}
	return plans, nil
}

// Current fetches the composite view of the user's subscription.
func (c *Client) Current(ctx context.Context) (*CurrentView, error) {
	var env currentEnvelope
	if err := c.get(ctx, "/current", &env, "current", fallbackCurrent); err != nil {
		return nil, err
	}
	return &CurrentView{
		Subscription:       env.Subscription,
		Plan:               narrowPlan(env.Plan),
		Limits:             env.Limits,
		Usage:              env.Usage,
		IsTrialing:         env.IsTrialing,
		TrialDaysRemaining: env.TrialDaysRemaining,
	}, nil
}

// Limits fetches just the limits object; cheaper than Current when the caller
// only needs caps.
func (c *Client) Limits(ctx context.Context) (*domain.Limits, error) {
	var env limitsEnvelope
	if err := c.get(ctx, "/limits", &env, "limits", fallbackLimits); err != nil {
		return nil, err
	}
	return &env.Limits, nil
}

// CheckLimit asks whether the named resource action is currently allowed.
func (c *Client) CheckLimit(ctx context.Context, resource string) (*LimitCheck, error) {
	var env checkEnvelope
	path := "/check/" + url.PathEscape(resource)
	if err := c.get(ctx, path, &env, "check-limit", fallbackCheckLimit); err != nil {
		return nil, err
	}
	return &LimitCheck{
		Resource: env.Resource,
		Allowed:  env.Allowed,
		Current:  env.Current,
		Limit:    env.Limit,
	}, nil
}

// CheckFeature reports whether the named feature is accessible on the current plan.
func (c *Client) CheckFeature(ctx context.Context, feature string) (bool, error) {
	var env featureEnvelope
	path := "/feature/" + url.PathEscape(feature)
	if err := c.get(ctx, path, &env, "check-feature", fallbackCheckFeature); err != nil {
		return false, err
	}
	return env.HasAccess, nil
}

// VerifyPurchase submits an external provider transaction for verification
// and returns the updated subscription state.
func (c *Client) VerifyPurchase(ctx context.Context, req domain.PurchaseVerification) (*PurchaseResult, error) {
	var env purchaseEnvelope
	if err := c.post(ctx, "/verify", req, &env, "verify", fallbackVerify); err != nil {
		return nil, err
	}
	return &PurchaseResult{
		Subscription: env.Subscription,
		Plan:         narrowPlan(env.Plan),
		Limits:       env.Limits,
	}, nil
}

// RestorePurchases re-applies previous purchases from the provider.
func (c *Client) RestorePurchases(ctx context.Context, req domain.PurchaseVerification) (*RestoreResult, error) {
	var env purchaseEnvelope
	if err := c.post(ctx, "/restore", req, &env, "restore", fallbackRestore); err != nil {
		return nil, err
	}
	return &RestoreResult{
		PurchaseResult: PurchaseResult{
			Subscription: env.Subscription,
			Plan:         narrowPlan(env.Plan),
			Limits:       env.Limits,
		},
		Restored: env.Restored,
	}, nil
}

// StartTrial begins the free trial for the current user.
func (c *Client) StartTrial(ctx context.Context) (*TrialResult, error) {
	var env purchaseEnvelope
	if err := c.post(ctx, "/start-trial", nil, &env, "start-trial", fallbackTrial); err != nil {
		return nil, err
	}
	return &TrialResult{
		PurchaseResult: PurchaseResult{
			Subscription: env.Subscription,
			Plan:         narrowPlan(env.Plan),
			Limits:       env.Limits,
		},
		TrialDaysRemaining: env.TrialDaysRemaining,
	}, nil
}

// Cancel cancels the current subscription.
func (c *Client) Cancel(ctx context.Context) (*CancelResult, error) {
	var env cancelEnvelope
	if err := c.post(ctx, "/cancel", nil, &env, "cancel", fallbackCancel); err != nil {
		return nil, err
	}
	return &CancelResult{
		Plan:   narrowPlan(env.Plan),
		Limits: env.Limits,
	}, nil
}

// Plumbing ------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, out any, op, fallback string) error {
	endpoint := c.base + basePath + path
	logger.DebugObj("subscription request", "subscription_request", map[string]any{"op": op, "url": endpoint})
	resp, err := c.http.Get(ctx, endpoint, nil)
	return c.finish(resp, err, out, op, fallback)
}

func (c *Client) post(ctx context.Context, path string, body, out any, op, fallback string) error {
	endpoint := c.base + basePath + path
	logger.DebugObj("subscription request", "subscription_request", map[string]any{"op": op, "url": endpoint})
	resp, err := c.http.Post(ctx, endpoint, nil, body)
	return c.finish(resp, err, out, op, fallback)
}

// finish applies the uniform error policy: any failure surfaces as an
// APIError whose message is the backend's reported error text when present.
func (c *Client) finish(resp httpclient.Response, err error, out any, op, fallback string) error {
	if err != nil {
		logger.ErrorObj("subscription request failed", "subscription_error", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return &APIError{Op: op, Message: fallback, Err: err}
	}

	// Decode the envelope alone first so the backend's error text survives
	// even when the payload does not match the expected shape.
	var env envelope
	_ = json.Unmarshal(resp.Body(), &env)

	if resp.StatusCode() != http.StatusOK || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = fallback
		}
		cause := fmt.Errorf("%s: status %d", op, resp.StatusCode())
		logger.ErrorObj("subscription request rejected", "subscription_error", map[string]any{
			"op":     op,
			"status": resp.StatusCode(),
			"error":  msg,
		})
		return &APIError{Op: op, Message: msg, Err: cause}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		logger.ErrorObj("subscription response malformed", "subscription_error", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return &APIError{Op: op, Message: fallback, Err: err}
	}
	return nil
}

// narrowPlan converts a wire plan, narrowing its code to the closed tier set.
func narrowPlan(w planWire) domain.Plan {
	tier, known := domain.TierFromCode(w.Code)
	if !known {
		logger.WarnObj("unknown plan code, narrowing to free tier", "plan_code", w.Code)
	}
	return domain.Plan{
		Code:         tier,
		Name:         w.Name,
		Description:  w.Description,
		PriceMonthly: w.PriceMonthly,
		PriceYearly:  w.PriceYearly,
	}
}
