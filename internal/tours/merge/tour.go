package merge

import (
	"tour-sync/internal/models"
)

// Inventory export columns.
const (
	InventoryIDColumn        = "id"
	InventoryNameColumn      = "name"
	InventoryShortnameColumn = "shortname"
	InventoryDurationColumn  = "duration"
	InventoryGroupColumn     = "businessgroupid"
)

var privateGroups = map[string]bool{"9": true, "10": true, "11": true, "12": true}

// VariantFor classifies a business group id.
func VariantFor(businessGroup string) string {
	if privateGroups[businessGroup] {
		return models.VariantPrivate
	}
	return models.VariantStandard
}

// BuildTour maps one inventory row. It reports false when the row has no id.
func BuildTour(row models.Row, prices PriceIndex) (models.Tour, bool) {
	id, ok := row.Get(InventoryIDColumn)
	if !ok {
		return models.Tour{}, false
	}
	name, _ := row.Get(InventoryNameColumn)
	shortname, _ := row.Get(InventoryShortnameColumn)
	duration, _ := row.Get(InventoryDurationColumn)
	group, _ := row.Get(InventoryGroupColumn)

	return models.Tour{
		ArcticID:      id,
		MasterName:    name,
		Shortname:     shortname,
		Price:         prices.Resolve(id),
		Duration:      duration,
		BusinessGroup: group,
		VariantType:   VariantFor(group),
	}, true
}
