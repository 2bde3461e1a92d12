package reverse

import (
	"errors"
	"strings"
	"unicode"

	"tour-sync/internal/models"
	"tour-sync/internal/tours/render"
)

var (
	ErrInvalidShortCode = errors.New("INVALID_SHORT_CODE")
	ErrEmptyExtraction  = errors.New("EMPTY_EXTRACTION")
)

// Policy controls how empty extracted fields are treated.
type Policy struct {
	// AllowClear sends empty fields upstream, clearing them. By default an empty
	// field means the document does not change it.
	AllowClear bool
}

// Propose turns an extraction into an upstream update.
func Propose(ex *Extraction, policy Policy) (*models.Proposal, error) {
	if !ValidShortCode(ex.ShortCode) {
		return nil, ErrInvalidShortCode
	}

	p := &models.Proposal{ShortCode: ex.ShortCode}
	if ex.Subtitle != "" || policy.AllowClear {
		subtitle := ex.Subtitle
		p.Subtitle = &subtitle
	}
	if ex.Description != "" || policy.AllowClear {
		description := ex.Description
		p.Description = &description
	}
	if p.Subtitle == nil && p.Description == nil {
		return nil, ErrEmptyExtraction
	}
	return p, nil
}

// ValidShortCode rejects codes that cannot address a single inventory record.
func ValidShortCode(code string) bool {
	if code == "" || code == render.MissingCode || strings.Contains(code, "/") {
		return false
	}
	return strings.IndexFunc(code, unicode.IsSpace) < 0
}
