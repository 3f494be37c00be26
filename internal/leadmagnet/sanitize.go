// Package leadmagnet serves the downloadable-guide form: input sanitizing,
// validation, a per-client attempt guard and lead scoring.
package leadmagnet

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxFieldRunes = 500

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsProtocol    = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// Sanitize strips markup and script vectors from a free-text field, trims it
// and caps it at 500 characters.
func Sanitize(input string) string {
	s := norm.NFC.String(input)
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsProtocol.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > maxFieldRunes {
		s = string(r[:maxFieldRunes])
	}
	return s
}

// Form is the lead-magnet request body.
type Form struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Timeline string `json:"timeline"`
	Budget   string `json:"budget"`
	Style    string `json:"style"`
}

// Sanitized returns a copy with every field passed through Sanitize.
func (f Form) Sanitized() Form {
	return Form{
		Name:     Sanitize(f.Name),
		Email:    Sanitize(f.Email),
		Phone:    Sanitize(f.Phone),
		Timeline: Sanitize(f.Timeline),
		Budget:   Sanitize(f.Budget),
		Style:    Sanitize(f.Style),
	}
}
