package camps

import (
	"fmt"
	"time"

	"github.com/kidsact-hq/campwatch/internal/domain"
)

// Wire shapes. Timestamps arrive as strings and must never leak past this
// package unresolved.

type wireDateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type wireCamp struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Organization  string        `json:"organization"`
	Description   string        `json:"description"`
	Location      string        `json:"location"`
	ActivityTypes []string      `json:"activityTypes"`
	MinAge        int           `json:"minAge"`
	MaxAge        int           `json:"maxAge"`
	Cost          float64       `json:"cost"`
	DateRange     wireDateRange `json:"dateRange"`
	ScrapedAt     string        `json:"scrapedAt"`
}

type listEnvelope struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Camps   []wireCamp `json:"camps"`
}

type detailEnvelope struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Camp    *wireCamp `json:"camp"`
}

// stampLayouts are the accepted serialized timestamp formats, tried in order.
var stampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func parseStamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is empty", field)
	}
	for _, layout := range stampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s has unrecognized timestamp %q", field, value)
}

// normalizeCamp resolves the three serialized timestamps and cleans up the
// scraped description. A camp that cannot be normalized is a schema
// violation, not data to pass along.
func normalizeCamp(w wireCamp) (domain.Camp, error) {
	start, err := parseStamp("dateRange.start", w.DateRange.Start)
	if err != nil {
		return domain.Camp{}, err
	}
	end, err := parseStamp("dateRange.end", w.DateRange.End)
	if err != nil {
		return domain.Camp{}, err
	}
	scrapedAt, err := parseStamp("scrapedAt", w.ScrapedAt)
	if err != nil {
		return domain.Camp{}, err
	}

	return domain.Camp{
		ID:            w.ID,
		Name:          w.Name,
		Organization:  w.Organization,
		Description:   CleanDescription(w.Description),
		Location:      w.Location,
		ActivityTypes: w.ActivityTypes,
		MinAge:        w.MinAge,
		MaxAge:        w.MaxAge,
		Cost:          w.Cost,
		DateRange:     domain.DateRange{Start: start, End: end},
		ScrapedAt:     scrapedAt,
	}, nil
}

func normalizeCamps(wires []wireCamp) ([]domain.Camp, error) {
	out := make([]domain.Camp, 0, len(wires))
	for i, w := range wires {
		camp, err := normalizeCamp(w)
		if err != nil {
			return nil, fmt.Errorf("camp[%d]: %w", i, err)
		}
		out = append(out, camp)
	}
	return out, nil
}
