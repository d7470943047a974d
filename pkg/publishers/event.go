package publishers

import (
	"time"

	"github.com/kidsact-hq/campwatch/internal/domain"
)

// Event represents the payload published downstream when a camp is first seen.
type Event struct {
	CampID       string      `json:"camp_id"`
	Name         string      `json:"name"`
	Organization string      `json:"organization"`
	Location     string      `json:"location"`
	StartsAt     time.Time   `json:"starts_at"`
	EndsAt       time.Time   `json:"ends_at"`
	Camp         domain.Camp `json:"camp"`
	SeenAt       time.Time   `json:"seen_at"`
}

// NewEvent constructs an Event for a newly seen camp.
func NewEvent(camp domain.Camp) Event {
	return Event{
		CampID:       camp.ID,
		Name:         camp.Name,
		Organization: camp.Organization,
		Location:     camp.Location,
		StartsAt:     camp.DateRange.Start,
		EndsAt:       camp.DateRange.End,
		Camp:         camp,
		SeenAt:       time.Now().UTC(),
	}
}
