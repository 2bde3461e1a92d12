package merge

import (
	"strings"

	"tour-sync/internal/models"
)

// Source names the system a field value comes from.
type Source string

const (
	SourceInventory Source = "arctic"
	SourceContent   Source = "website"
)

// Rule names the authoritative source of one field.
type Rule struct {
	Field     string
	Authority Source
}

// Rules lists every field present in both sources. Fields held by a single source
// have no rule and pass through.
var Rules = []Rule{
	{Field: "name", Authority: SourceInventory},
	{Field: "price", Authority: SourceInventory},
	{Field: "duration", Authority: SourceInventory},
	{Field: "description", Authority: SourceContent},
	{Field: "images", Authority: SourceContent},
}

// AuthorityFor returns the authoritative source of field, or "" when no rule exists.
func AuthorityFor(field string) Source {
	for _, r := range Rules {
		if r.Field == field {
			return r.Authority
		}
	}
	return ""
}

// Join applies the authority rules to a tour and its linked content. Content values
// that lose to inventory are recorded as conflicts and removed from the view.
func Join(tour models.Tour, content *models.SupplementaryContent) models.TourView {
	view := models.TourView{Tour: tour, LastUpdated: tour.UpdatedAt}
	if content == nil {
		return view
	}

	view.ContentLinked = true
	view.Content = *content
	if view.LastUpdated == nil {
		view.LastUpdated = content.LastSynced
	}

	if c := conflict("price", tour.Price, content.PricingInfo); c != nil {
		view.Conflicts = append(view.Conflicts, *c)
	}
	if c := conflict("name", tour.MasterName, content.MasterName); c != nil {
		view.Conflicts = append(view.Conflicts, *c)
	}
	view.Content.PricingInfo = ""
	return view
}

func conflict(field, inventoryValue, contentValue string) *models.Conflict {
	if AuthorityFor(field) != SourceInventory || contentValue == "" {
		return nil
	}
	if normalize(inventoryValue) == normalize(contentValue) {
		return nil
	}
	return &models.Conflict{Field: field, Winner: inventoryValue, Discarded: contentValue}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
