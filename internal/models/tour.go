// internal/models/tour.go
package models

import "time"

const (
	VariantStandard = "Standard"
	VariantPrivate  = "Private"

	// PriceUnknown is stored when no standard or adult price tier resolves.
	PriceUnknown = "TBD"
)

// Tour is the canonical inventory record. ArcticID never changes once stored.
type Tour struct {
	ArcticID          string     `json:"arcticId"`
	MasterName        string     `json:"masterName"`
	Shortname         string     `json:"shortname"`
	Price             string     `json:"price"`
	Duration          string     `json:"duration"`
	BusinessGroup     string     `json:"businessGroup"`
	VariantType       string     `json:"variantType"`
	OutlineDocumentID string     `json:"outlineDocumentId,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// TourView is a tour joined with its linked content after authority rules were applied.
type TourView struct {
	Tour          Tour                 `json:"tour"`
	Content       SupplementaryContent `json:"content"`
	ContentLinked bool                 `json:"contentLinked"`
	LastUpdated   *time.Time           `json:"lastUpdated,omitempty"`
	Conflicts     []Conflict           `json:"conflicts,omitempty"`
}

// Conflict records a content value that lost to an authoritative inventory value.
type Conflict struct {
	Field     string `json:"field"`
	Winner    string `json:"winner"`
	Discarded string `json:"discarded"`
}
