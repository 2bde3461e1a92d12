// internal/models/content.go
package models

import "time"

const (
	FeeBike    = "bike_fee"
	FeeCamp    = "camp_fee"
	FeeShuttle = "shuttle_fee"
)

// SupplementaryContent is the marketing content exported from the website.
type SupplementaryContent struct {
	WebsiteID        string            `json:"websiteId"`
	MasterName       string            `json:"masterName"`
	Subtitle         string            `json:"subtitle"`
	Region           string            `json:"region"`
	SkillLevel       string            `json:"skillLevel"`
	Season           string            `json:"season"`
	ShortDescription string            `json:"shortDescription"`
	LongDescription  string            `json:"longDescription"`
	DepartsFrom      string            `json:"departsFrom"`
	Distance         string            `json:"distance"`
	PricingInfo      string            `json:"pricingInfo"`
	Fees             map[string]string `json:"fees"`
	SpecialNotes     string            `json:"specialNotes"`
	DatesAvailable   string            `json:"datesAvailable"`
	ReservationLink  string            `json:"reservationLink"`
	Images           []string          `json:"images"`
	LastSynced       *time.Time        `json:"lastSynced,omitempty"`
}

// Fee returns the named fee or an empty string.
func (c SupplementaryContent) Fee(name string) string {
	if c.Fees == nil {
		return ""
	}
	return c.Fees[name]
}
