// Package extract reads typed attributes out of loosely structured source rows.
// Nothing in this package returns an error: an attribute that cannot be found is empty.
package extract

import (
	"strings"

	"tour-sync/internal/models"
)

// MaxImages caps the image list taken from one content row.
const MaxImages = 6

// ContentIDColumn identifies a website content row.
const ContentIDColumn = "ID"

// Attribute names of the content alias table.
const (
	AttrTitle            = "title"
	AttrSubtitle         = "subtitle"
	AttrRegion           = "region"
	AttrSkillLevel       = "skill_level"
	AttrSeason           = "season"
	AttrShortDescription = "short_description"
	AttrDescription      = "description"
	AttrDeparts          = "departs"
	AttrDistance         = "distance"
	AttrStandardPrice    = "standard_price"
	AttrBikeRental       = "bike_rental"
	AttrCampRental       = "camp_rental"
	AttrShuttleFee       = "shuttle_fee"
	AttrSpecialNotes     = "special_notes"
	AttrDates            = "dates"
	AttrReservationLink  = "reservation_link"
	AttrImages           = "images"
)

// ContentAliases lists, per attribute, the export columns to try in order.
var ContentAliases = map[string][]string{
	AttrTitle:            {"Title"},
	AttrSubtitle:         {"subtitle", "_subtitle"},
	AttrRegion:           {"region", "_region", "Region"},
	AttrSkillLevel:       {"skill_level", "_skill_level"},
	AttrSeason:           {"season", "_season"},
	AttrShortDescription: {"short_description", "_short_description", "Excerpt"},
	AttrDescription:      {"description", "_description", "Content"},
	AttrDeparts:          {"departs", "_departs"},
	AttrDistance:         {"distance", "_distance"},
	AttrStandardPrice:    {"standard_price", "_standard_price"},
	AttrBikeRental:       {"bike_rental", "_bike_rental"},
	AttrCampRental:       {"camp_rental", "_camp_rental"},
	AttrShuttleFee:       {"shuttle_fee", "_shuttle_fee"},
	AttrSpecialNotes:     {"special_notes", "_special_notes"},
	AttrDates:            {"dates", "_dates"},
	AttrReservationLink:  {"reservation_link", "_reservation_link"},
	AttrImages:           {"Image URL", "Featured Image"},
}

// FirstValue returns the value of the first alias that is present and not missing.
func FirstValue(row models.Row, aliases ...string) string {
	for _, alias := range aliases {
		if v, ok := row.Get(alias); ok {
			return v
		}
	}
	return ""
}

// Attribute resolves attr through ContentAliases.
func Attribute(row models.Row, attr string) string {
	return FirstValue(row, ContentAliases[attr]...)
}

// ImageFilenames splits a pipe-delimited URL list and keeps the last path segment of
// each entry, in order, up to MaxImages.
func ImageFilenames(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, entry := range strings.Split(raw, "|") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name := entry[strings.LastIndex(entry, "/")+1:]
		if name == "" {
			continue
		}
		out = append(out, name)
		if len(out) == MaxImages {
			break
		}
	}
	return out
}

// Content builds a content record from one export row. It reports false when the row
// has no ID.
func Content(row models.Row) (models.SupplementaryContent, bool) {
	id, ok := row.Get(ContentIDColumn)
	if !ok {
		return models.SupplementaryContent{}, false
	}

	fees := map[string]string{}
	for name, attr := range map[string]string{
		models.FeeBike:    AttrBikeRental,
		models.FeeCamp:    AttrCampRental,
		models.FeeShuttle: AttrShuttleFee,
	} {
		if v := Attribute(row, attr); v != "" {
			fees[name] = v
		}
	}

	return models.SupplementaryContent{
		WebsiteID:        id,
		MasterName:       Attribute(row, AttrTitle),
		Subtitle:         Attribute(row, AttrSubtitle),
		Region:           Attribute(row, AttrRegion),
		SkillLevel:       Attribute(row, AttrSkillLevel),
		Season:           Attribute(row, AttrSeason),
		ShortDescription: Attribute(row, AttrShortDescription),
		LongDescription:  Attribute(row, AttrDescription),
		DepartsFrom:      Attribute(row, AttrDeparts),
		Distance:         Attribute(row, AttrDistance),
		PricingInfo:      Attribute(row, AttrStandardPrice),
		Fees:             fees,
		SpecialNotes:     Attribute(row, AttrSpecialNotes),
		DatesAvailable:   Attribute(row, AttrDates),
		ReservationLink:  Attribute(row, AttrReservationLink),
		Images:           ImageFilenames(Attribute(row, AttrImages)),
	}, true
}
