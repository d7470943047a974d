package domain

import "time"

// Domain contains core models shared by the camp and subscription clients.

// DateRange is the scheduled window of a camp session. Both ends are always
// resolved time values in memory; the wire carries them as strings.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Camp is a single aggregated camp listing.
type Camp struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Organization  string    `json:"organization"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	ActivityTypes []string  `json:"activityTypes"`
	MinAge        int       `json:"minAge"`
	MaxAge        int       `json:"maxAge"`
	Cost          float64   `json:"cost"`
	DateRange     DateRange `json:"dateRange"`
	ScrapedAt     time.Time `json:"scrapedAt"`
}

// Filter narrows a camp search. Every field is optional; absent fields are
// omitted from the outgoing query entirely.
type Filter struct {
	ActivityTypes []string
	MinAge        *int
	MaxAge        *int
	MaxCost       *float64
}

// IsZero reports whether the filter carries no criteria at all.
func (f Filter) IsZero() bool {
	return len(f.ActivityTypes) == 0 && f.MinAge == nil && f.MaxAge == nil && f.MaxCost == nil
}
