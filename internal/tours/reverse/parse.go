// Package reverse extracts manual edits from published tour documents and proposes
// them as inventory updates.
package reverse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/validation"
	"tour-sync/internal/tours/render"

	"gopkg.in/yaml.v3"
)

var identityCell = regexp.MustCompile(`\|\s*\*\*(.*?)\*\*\s*\|`)

var frontMatterValidator = validation.MustValidator(validation.FrontMatterSchema)

// Extraction holds the editable fields read from one document.
type Extraction struct {
	ShortCode   string
	Subtitle    string
	Description string
	FrontMatter *render.FrontMatter
	// FrontMatterErr is set when a front matter block exists but was rejected; the
	// short code then comes from the identity table.
	FrontMatterErr error
}

// Parse reads a tour document. It reports false when the text carries neither the
// identity marker nor a front matter block.
func Parse(text string) (*Extraction, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	fm, fmFound, fmErr := parseFrontMatter(text)
	if !fmFound && !strings.Contains(text, render.Marker) {
		return nil, false
	}

	ex := &Extraction{
		Subtitle:       parseSubtitle(text),
		Description:    parseDescription(text),
		FrontMatterErr: fmErr,
	}
	if fm != nil {
		ex.FrontMatter = fm
		ex.ShortCode = strings.TrimSpace(fm.ArcticCode)
	} else if m := identityCell.FindStringSubmatch(text); m != nil {
		ex.ShortCode = strings.TrimSpace(m[1])
	}
	return ex, true
}

// parseFrontMatter returns the decoded block, whether a block was present, and the
// reason it was rejected.
func parseFrontMatter(text string) (*render.FrontMatter, bool, error) {
	idx := strings.Index(text, render.MetadataComment)
	if idx < 0 {
		return nil, false, nil
	}
	rest := strings.TrimLeft(text[idx+len(render.MetadataComment):], " \t\n")
	if !strings.HasPrefix(rest, render.FrontMatterFence+"\n") {
		return nil, false, nil
	}
	rest = rest[len(render.FrontMatterFence)+1:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return nil, true, invalidFrontMatter(errors.New("unterminated block"))
	}
	block := rest[:end]

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, true, invalidFrontMatter(err)
	}
	result, err := frontMatterValidator.Validate(raw)
	if err != nil {
		return nil, true, invalidFrontMatter(err)
	}
	if !result.Valid {
		return nil, true, invalidFrontMatter(fmt.Errorf("%s", strings.Join(result.GetErrorMessages(), "; ")))
	}

	var fm render.FrontMatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, true, invalidFrontMatter(err)
	}
	return &fm, true, nil
}

func invalidFrontMatter(err error) error {
	return apperrors.New(apperrors.ErrCodeInvalidFrontMatter, "Front matter rejected", err)
}

// parseSubtitle returns the rest of the subtitle line up to the next bold label.
func parseSubtitle(text string) string {
	idx := strings.Index(text, render.SubtitleLabel)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(text[idx+len(render.SubtitleLabel):], " \t")
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if bold := strings.Index(rest, "**"); bold >= 0 {
		rest = rest[:bold]
	}
	return strings.TrimSpace(rest)
}

// parseDescription returns the quoted block after the long description label. The
// block ends at a blank line, a heading or the end of the text.
func parseDescription(text string) string {
	idx := strings.Index(text, render.LongDescriptionLabel)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(text[idx+len(render.LongDescriptionLabel):], " \t")
	rest = strings.TrimPrefix(rest, "\n")

	end := len(rest)
	for _, stop := range []string{"\n\n", "\n##"} {
		if i := strings.Index(rest, stop); i >= 0 && i < end {
			end = i
		}
	}
	if strings.HasPrefix(rest, "##") {
		end = 0
	}

	lines := strings.Split(rest[:end], "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, ">") {
			l = strings.TrimPrefix(l[1:], " ")
		}
		lines[i] = l
	}
	desc := strings.TrimSpace(strings.Join(lines, "\n"))
	return render.CutRunes(desc, render.DescriptionLimit)
}
