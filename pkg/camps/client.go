// Package camps is the client for the aggregated camp listings API. It owns
// the response normalization contract: every camp handed to a caller has its
// date fields resolved to time values and its description reduced to text.
package camps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kidsact-hq/campwatch/internal/domain"
	"github.com/kidsact-hq/campwatch/internal/logger"
	"github.com/kidsact-hq/campwatch/pkg/httpclient"
)

const (
	listPath   = "/api/v1/camps"
	searchPath = "/api/v1/camps/search"

	defaultTimeout = 15 * time.Second
)

// Client fetches camp listings from the backend. It holds no state beyond
// connection configuration; construct one in the composition root and share
// it freely across goroutines.
type Client struct {
	base string
	http httpclient.Client
	now  func() time.Time
}

// New builds a camp client for the given base URL. A nil httpClient gets the
// default resty transport.
func New(baseURL string, httpClient httpclient.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
		now:  time.Now,
	}
}

// FetchAll retrieves the full camp listing. Connection-refused and
// network-level failures are translated into ErrServerUnreachable and
// ErrNetworkUnreachable; every other failure is returned unchanged.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Camp, error) {
	return c.fetchList(ctx, "")
}

// Refresh retrieves the listing with a cache-busting query parameter so the
// backend bypasses its server-side cache. If the refreshed fetch fails it
// falls back to a plain FetchAll.
func (c *Client) Refresh(ctx context.Context) ([]domain.Camp, error) {
	q := url.Values{"refresh": []string{strconv.FormatInt(c.now().UnixNano(), 10)}}
	camps, err := c.fetchList(ctx, q.Encode())
	if err != nil {
		logger.WarnObj("camp refresh failed, falling back to plain fetch", "refresh_error", map[string]any{
			"error": err.Error(),
		})
		return c.FetchAll(ctx)
	}
	return camps, nil
}

// Search queries the listing with the present filter fields only. Failures
// are logged and swallowed: an empty result means either "no matches" or
// "search unavailable", indistinguishable by design.
func (c *Client) Search(ctx context.Context, filter domain.Filter) []domain.Camp {
	endpoint := c.base + searchPath
	if q := buildQuery(filter); q != "" {
		endpoint += "?" + q
	}
	logger.DebugObj("searching camps", "camps_request", map[string]any{"url": endpoint})

	resp, err := c.http.Get(ctx, endpoint, nil)
	if err != nil {
		logger.WarnObj("camp search failed", "search_error", map[string]any{"error": err.Error()})
		return []domain.Camp{}
	}
	env, err := decodeList(resp)
	if err != nil {
		logger.WarnObj("camp search response rejected", "search_error", map[string]any{"error": err.Error()})
		return []domain.Camp{}
	}
	camps, err := normalizeCamps(env.Camps)
	if err != nil {
		logger.WarnObj("camp search result malformed", "search_error", map[string]any{"error": err.Error()})
		return []domain.Camp{}
	}
	return camps
}

// GetDetails resolves one camp by ID. It tries the detail endpoint first and
// falls back to scanning the full listing; a camp absent from both yields nil
// rather than an error.
func (c *Client) GetDetails(ctx context.Context, id string) *domain.Camp {
	endpoint := c.base + listPath + "/" + url.PathEscape(id)
	logger.DebugObj("fetching camp details", "camps_request", map[string]any{"url": endpoint})

	if camp := c.fetchDetail(ctx, endpoint); camp != nil {
		return camp
	}

	all, err := c.FetchAll(ctx)
	if err != nil {
		logger.WarnObj("camp detail fallback fetch failed", "detail_error", map[string]any{
			"camp_id": id,
			"error":   err.Error(),
		})
		return nil
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i]
		}
	}
	return nil
}

func (c *Client) fetchDetail(ctx context.Context, endpoint string) *domain.Camp {
	resp, err := c.http.Get(ctx, endpoint, nil)
	if err != nil {
		logger.WarnObj("camp detail fetch failed", "detail_error", map[string]any{"error": err.Error()})
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		logger.DebugObj("camp detail endpoint miss", "detail_status", resp.StatusCode())
		return nil
	}
	var env detailEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil || !env.Success || env.Camp == nil {
		return nil
	}
	camp, err := normalizeCamp(*env.Camp)
	if err != nil {
		logger.WarnObj("camp detail record malformed", "detail_error", map[string]any{"error": err.Error()})
		return nil
	}
	return &camp
}

func (c *Client) fetchList(ctx context.Context, rawQuery string) ([]domain.Camp, error) {
	endpoint := c.base + listPath
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}
	logger.DebugObj("fetching camp listing", "camps_request", map[string]any{"url": endpoint})

	resp, err := c.http.Get(ctx, endpoint, nil)
	if err != nil {
		classified := classifyTransportErr(err)
		logger.ErrorObj("camp listing fetch failed", "camps_error", map[string]any{
			"url":   endpoint,
			"error": classified.Error(),
		})
		return nil, classified
	}
	env, err := decodeList(resp)
	if err != nil {
		logger.ErrorObj("camp listing response rejected", "camps_error", map[string]any{"error": err.Error()})
		return nil, err
	}
	return normalizeCamps(env.Camps)
}

func decodeList(resp httpclient.Response) (listEnvelope, error) {
	if resp.StatusCode() != http.StatusOK {
		return listEnvelope{}, fmt.Errorf("camp listing status %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}
	var env listEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return listEnvelope{}, fmt.Errorf("decode camp listing: %w", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return listEnvelope{}, fmt.Errorf("camp listing rejected: %s", msg)
	}
	return env, nil
}

// buildQuery serializes only the present filter fields; an empty filter
// yields no query string at all.
func buildQuery(f domain.Filter) string {
	q := url.Values{}
	if len(f.ActivityTypes) > 0 {
		q.Set("activityTypes", strings.Join(f.ActivityTypes, ","))
	}
	if f.MinAge != nil {
		q.Set("minAge", strconv.Itoa(*f.MinAge))
	}
	if f.MaxAge != nil {
		q.Set("maxAge", strconv.Itoa(*f.MaxAge))
	}
	if f.MaxCost != nil {
		q.Set("maxCost", strconv.FormatFloat(*f.MaxCost, 'f', -1, 64))
	}
	return q.Encode()
}

func bodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
