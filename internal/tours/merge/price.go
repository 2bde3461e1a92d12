package merge

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"tour-sync/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Pricing export columns.
const (
	PricingIDColumn     = "Arctic_ID"
	PricingNameColumn   = "Price_Name"
	PricingAmountColumn = "Amount"
)

var standardTier = regexp.MustCompile(`(?i)standard|adult`)

var pricePrinter = message.NewPrinter(language.English)

// PriceIndex groups pricing rows by tour id, in source order.
type PriceIndex map[string][]models.Row

// NewPriceIndex indexes pricing rows; rows without an Arctic_ID are dropped.
func NewPriceIndex(rows []models.Row) PriceIndex {
	idx := PriceIndex{}
	for _, row := range rows {
		id, ok := row.Get(PricingIDColumn)
		if !ok {
			continue
		}
		idx[id] = append(idx[id], row)
	}
	return idx
}

// Resolve returns the formatted amount of the first standard or adult tier for id,
// or TBD when there is none or its amount does not parse.
func (idx PriceIndex) Resolve(id string) string {
	for _, row := range idx[id] {
		name, _ := row.Get(PricingNameColumn)
		if !standardTier.MatchString(name) {
			continue
		}
		amount, _ := row.Get(PricingAmountColumn)
		return FormatPrice(amount)
	}
	return models.PriceUnknown
}

// FormatPrice renders a decimal amount as "$1,299". Unparseable input yields TBD.
func FormatPrice(amount string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.PriceUnknown
	}
	return pricePrinter.Sprintf("$%v", number.Decimal(v, number.MaxFractionDigits(0)))
}
