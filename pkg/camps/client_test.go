package camps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kidsact-hq/campwatch/internal/domain"
)

const listingPayload = `{
  "success": true,
  "camps": [
    {
      "id": "camp-1",
      "name": "Forest Explorers",
      "organization": "Green Trails",
      "description": "<p>Hiking &amp; crafts</p>",
      "location": "North Vancouver",
      "activityTypes": ["outdoor", "crafts"],
      "minAge": 6,
      "maxAge": 10,
      "cost": 349.5,
      "dateRange": {"start": "2026-07-06T09:00:00Z", "end": "2026-07-10T15:00:00Z"},
      "scrapedAt": "2026-06-01T04:30:00Z"
    },
    {
      "id": "camp-2",
      "name": "Robo Lab",
      "organization": "STEM Works",
      "description": "Build robots",
      "location": "Burnaby",
      "activityTypes": ["stem"],
      "minAge": 8,
      "maxAge": 13,
      "cost": 420,
      "dateRange": {"start": "2026-08-03", "end": "2026-08-07"},
      "scrapedAt": "2026-06-02T04:30:00Z"
    }
  ]
}`

func TestFetchAllNormalizesDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/camps" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listingPayload))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	camps, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if len(camps) != 2 {
		t.Fatalf("expected 2 camps, got %d", len(camps))
	}

	first := camps[0]
	wantStart := time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)
	if !first.DateRange.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", first.DateRange.Start, wantStart)
	}
	if first.DateRange.End.IsZero() || first.ScrapedAt.IsZero() {
		t.Fatalf("date fields not resolved: %+v", first)
	}
	if first.Description != "Hiking & crafts" {
		t.Fatalf("description not cleaned: %q", first.Description)
	}

	// Date-only layout must also resolve.
	second := camps[1]
	if got := second.DateRange.Start; !got.Equal(time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only start = %v", got)
	}
}

func TestFetchAllEmptyListingIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": true, "camps": []}`))
	}))
	defer srv.Close()

	camps, err := New(srv.URL, nil).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if len(camps) != 0 {
		t.Fatalf("expected empty listing, got %d camps", len(camps))
	}
}

func TestFetchAllConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).FetchAll(context.Background())
	if err == nil {
		t.Fatalf("expected error against closed server")
	}
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable, got %v", err)
	}
}

func TestFetchAllMalformedCampIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": true, "camps": [{"id": "x", "dateRange": {"start": "not-a-date", "end": ""}}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).FetchAll(context.Background())
	if err == nil {
		t.Fatalf("expected schema violation error")
	}
	if errors.Is(err, ErrServerUnreachable) || errors.Is(err, ErrNetworkUnreachable) {
		t.Fatalf("schema violation must not be classified as transport failure: %v", err)
	}
}

func TestSearchEmptyFilterOmitsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/camps/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Fatalf("empty filter must send no query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"success": true, "camps": []}`))
	}))
	defer srv.Close()

	New(srv.URL, nil).Search(context.Background(), domain.Filter{})
}

func TestSearchBuildsPresentParamsOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("activityTypes"); got != "stem,outdoor" {
			t.Fatalf("activityTypes = %q", got)
		}
		if got := q.Get("minAge"); got != "6" {
			t.Fatalf("minAge = %q", got)
		}
		if q.Has("maxAge") {
			t.Fatalf("absent maxAge must not be sent")
		}
		if got := q.Get("maxCost"); got != "500" {
			t.Fatalf("maxCost = %q", got)
		}
		w.Write([]byte(`{"success": true, "camps": []}`))
	}))
	defer srv.Close()

	minAge := 6
	maxCost := 500.0
	New(srv.URL, nil).Search(context.Background(), domain.Filter{
		ActivityTypes: []string{"stem", "outdoor"},
		MinAge:        &minAge,
		MaxCost:       &maxCost,
	})
}

func TestSearchSwallowsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := New(url, nil).Search(context.Background(), domain.Filter{})
	if len(result) != 0 {
		t.Fatalf("expected empty result on transport failure, got %d", len(result))
	}
}

func TestSearchSwallowsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "search broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := New(srv.URL, nil).Search(context.Background(), domain.Filter{})
	if len(result) != 0 {
		t.Fatalf("expected empty result on 500, got %d", len(result))
	}
}

func TestGetDetailsDirectHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/camps/camp-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
  "success": true,
  "camp": {
    "id": "camp-1",
    "name": "Forest Explorers",
    "dateRange": {"start": "2026-07-06T09:00:00Z", "end": "2026-07-10T15:00:00Z"},
    "scrapedAt": "2026-06-01T04:30:00Z"
  }
}`))
	}))
	defer srv.Close()

	camp := New(srv.URL, nil).GetDetails(context.Background(), "camp-1")
	if camp == nil {
		t.Fatalf("expected camp from detail endpoint")
	}
	if camp.ScrapedAt.IsZero() {
		t.Fatalf("detail record not normalized: %+v", camp)
	}
}

func TestGetDetailsFallsBackToListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/camps/camp-2" {
			http.Error(w, "detail endpoint down", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(listingPayload))
	}))
	defer srv.Close()

	camp := New(srv.URL, nil).GetDetails(context.Background(), "camp-2")
	if camp == nil {
		t.Fatalf("expected camp from listing fallback")
	}
	if camp.Name != "Robo Lab" {
		t.Fatalf("fallback resolved wrong camp: %+v", camp)
	}
}

func TestGetDetailsAbsentEverywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/camps" {
			w.Write([]byte(listingPayload))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if camp := New(srv.URL, nil).GetDetails(context.Background(), "no-such-camp"); camp != nil {
		t.Fatalf("expected nil for absent camp, got %+v", camp)
	}
}

func TestRefreshSendsDistinctCacheBusters(t *testing.T) {
	var values []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values = append(values, r.URL.Query().Get("refresh"))
		w.Write([]byte(`{"success": true, "camps": []}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	stamps := []time.Time{
		time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 10, 15, 0, 0, time.UTC),
	}
	calls := 0
	client.now = func() time.Time { ts := stamps[calls]; calls++; return ts }

	for i := 0; i < 2; i++ {
		if _, err := client.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}

	if len(values) != 2 || values[0] == "" || values[1] == "" {
		t.Fatalf("expected 2 refresh params, got %v", values)
	}
	if values[0] == values[1] {
		t.Fatalf("refresh params must differ across calls: %v", values)
	}
}

func TestRefreshFallsBackToPlainFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("refresh") {
			http.Error(w, "refresh unsupported", http.StatusBadRequest)
			return
		}
		w.Write([]byte(listingPayload))
	}))
	defer srv.Close()

	camps, err := New(srv.URL, nil).Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh should fall back, got error: %v", err)
	}
	if len(camps) != 2 {
		t.Fatalf("expected fallback listing, got %d camps", len(camps))
	}
}

func TestEveryResponsePathResolvesDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPayload))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	ctx := context.Background()

	var all []domain.Camp
	fetched, err := client.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	all = append(all, fetched...)
	all = append(all, client.Search(ctx, domain.Filter{})...)
	refreshed, err := client.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	all = append(all, refreshed...)

	for _, camp := range all {
		if camp.DateRange.Start.IsZero() || camp.DateRange.End.IsZero() || camp.ScrapedAt.IsZero() {
			t.Fatalf("unresolved date fields on %s: %+v", camp.ID, camp)
		}
	}

	// The in-memory model must round-trip as time values, not raw strings.
	blob, err := json.Marshal(all[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round domain.Camp
	if err := json.Unmarshal(blob, &round); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !round.ScrapedAt.Equal(all[0].ScrapedAt) {
		t.Fatalf("scrapedAt did not round-trip: %v vs %v", round.ScrapedAt, all[0].ScrapedAt)
	}
}
