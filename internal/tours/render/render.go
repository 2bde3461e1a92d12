// Package render produces the human-editable tour document and defines the markers
// the reverse parser relies on.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tour-sync/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	// Marker identifies a tour document.
	Marker = "Arctic Code"

	MetadataComment  = "<!-- SYSTEM METADATA -->"
	FrontMatterFence = "```yaml"

	SubtitleLabel        = "**Subtitle:**"
	LongDescriptionLabel = "**Long Description:**"

	// DescriptionLimit caps the long description in runes.
	DescriptionLimit   = 1500
	ContinuationMarker = "..."

	// MissingCode is shown when a tour has no short name.
	MissingCode = "N/A"

	StatusSynced         = "Synced"
	StatusContentMissing = "Content Missing"

	TimestampLayout = "2006-01-02 15:04"

	SchemaVersion = 1
)

// FrontMatter is the machine-readable block written after the metadata comment.
type FrontMatter struct {
	ArcticCode    string `yaml:"arctic_code" json:"arctic_code"`
	ArcticID      string `yaml:"arctic_id" json:"arctic_id"`
	WebsiteID     string `yaml:"website_id,omitempty" json:"website_id,omitempty"`
	Variant       string `yaml:"variant,omitempty" json:"variant,omitempty"`
	SchemaVersion int    `yaml:"schema_version" json:"schema_version"`
}

type Renderer struct {
	Now func() time.Time
}

func New() *Renderer {
	return &Renderer{Now: time.Now}
}

// Render returns the document text for view. The output depends only on the view and
// on Now when the view has no last-updated time.
func (r *Renderer) Render(view models.TourView) (string, error) {
	t, c := view.Tour, view.Content

	fm, err := yaml.Marshal(FrontMatter{
		ArcticCode:    t.Shortname,
		ArcticID:      t.ArcticID,
		WebsiteID:     c.WebsiteID,
		Variant:       t.VariantType,
		SchemaVersion: SchemaVersion,
	})
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}

	code := t.Shortname
	if code == "" {
		code = MissingCode
	}
	status := StatusSynced
	if !view.ContentLinked {
		status = StatusContentMissing
	}

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# %s", t.MasterName)
	line("")
	line(MetadataComment)
	line(FrontMatterFence)
	b.Write(fm)
	line("```")
	line("")
	line("| %s | System Status | Last Updated |", Marker)
	line("| :--- | :--- | :--- |")
	line("| **%s** | %s | %s |", code, status, r.timestamp(view.LastUpdated))
	line("")
	line("---")
	line("")
	line("## 1. The Shared DNA")
	line("%s %s  ", SubtitleLabel, singleLine(c.Subtitle))
	line("**Region:** %s  ", singleLine(c.Region))
	line("**Skill Level:** %s  ", singleLine(c.SkillLevel))
	line("**Season:** %s", singleLine(c.Season))
	line("")
	line("**Short Description:**")
	b.WriteString(quote(normalizeText(c.ShortDescription)))
	line("")
	line(LongDescriptionLabel)
	b.WriteString(quote(TruncateDescription(c.LongDescription)))
	line("")
	line("**Images (Filenames):**")
	line("`%s`", images(c.Images))
	line("")
	line("## 💵 Pricing Information (Arctic-Authoritative)")
	line("**Standard Price:** %s  ", orDefault(t.Price, models.PriceUnknown))
	line("**Duration:** %s  ", orDefault(t.Duration, MissingCode))
	line("**Type:** %s", orDefault(t.VariantType, MissingCode))
	line("")
	line("## 💰 Fees & Logistics")
	line("| Item | Cost / Details |")
	line("| :--- | :--- |")
	line("| **Bike Rental** | %s |", orDefault(c.Fee(models.FeeBike), MissingCode))
	line("| **Camp Kit** | %s |", orDefault(c.Fee(models.FeeCamp), MissingCode))
	line("| **Shuttle Service** | %s |", orDefault(c.Fee(models.FeeShuttle), MissingCode))
	line("")
	line("## 📋 Additional Information")
	line("**Departs From:** %s  ", singleLine(c.DepartsFrom))
	line("**Distance:** %s  ", singleLine(c.Distance))
	line("**Dates Available:** %s  ", singleLine(c.DatesAvailable))
	line("**Reservation Link:** %s  ", singleLine(c.ReservationLink))
	line("**Special Notes:** %s", singleLine(c.SpecialNotes))
	line("")
	line("---")
	line("")
	line("## 2. Arctic Configurations (SKUs)")
	line("| Variant Name | Arctic ID | Short Name | Price | Duration | Type |")
	line("| :--- | :--- | :--- | :--- | :--- | :--- |")
	line("| %s | %s | %s | %s | %s | %s |", t.MasterName, t.ArcticID, code,
		orDefault(t.Price, models.PriceUnknown), orDefault(t.Duration, MissingCode), orDefault(t.VariantType, MissingCode))
	line("")
	line("## 3. Full Content")
	line("%s", normalizeText(c.LongDescription))

	return b.String(), nil
}

func (r *Renderer) timestamp(lastUpdated *time.Time) string {
	if lastUpdated != nil {
		return lastUpdated.Format(TimestampLayout)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().Format(TimestampLayout)
}

// TruncateDescription normalizes a long description and cuts it to DescriptionLimit
// runes, appending the continuation marker only when something was cut.
func TruncateDescription(s string) string {
	s = normalizeText(s)
	if utf8.RuneCountInString(s) <= DescriptionLimit {
		return s
	}
	return CutRunes(s, DescriptionLimit) + ContinuationMarker
}

// CutRunes returns at most n runes of s.
func CutRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// quote renders s as a block quote. Blank lines keep a bare marker so the block
// stays contiguous.
func quote(s string) string {
	var b strings.Builder
	for _, l := range strings.Split(s, "\n") {
		if l == "" {
			b.WriteString(">\n")
			continue
		}
		b.WriteString("> ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func images(names []string) string {
	if len(names) == 0 {
		return "No images found"
	}
	return strings.Join(names, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
