package leads

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var knownSources = map[string]struct{}{
	SourceLandingPage:  {},
	SourceReferral:     {},
	SourceDirect:       {},
	SourceConstruction: {},
	SourceLeadMagnet:   {},
}

// ValidName reports whether name has at least two characters.
func ValidName(name string) bool {
	return utf8.RuneCountInString(name) >= 2
}

// ValidEmail reports whether email has the basic local@domain.tld shape.
func ValidEmail(email string) bool {
	return email != "" && emailShape.MatchString(email)
}

// CanonicalPhone strips every non-digit and keeps the result only when it
// has at least 10 digits. Empty input and the "skipped" sentinel yield nil.
// Applying it to its own output returns the same value.
func CanonicalPhone(raw string) *string {
	if raw == "" || raw == PhoneSkipped {
		return nil
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) < 10 {
		return nil
	}
	return &digits
}

// IsKnownSource reports whether source is one of the fixed source tags.
func IsKnownSource(source string) bool {
	_, ok := knownSources[source]
	return ok
}

// ResolveSource picks the lead source. A known tag sent by the form wins;
// otherwise the Referer decides between landing_page, referral and direct.
func ResolveSource(requested, referer string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if IsKnownSource(requested) {
		return requested
	}
	switch {
	case strings.Contains(referer, "landing"):
		return SourceLandingPage
	case strings.Contains(referer, "referral"):
		return SourceReferral
	default:
		return SourceDirect
	}
}

// PromotedFields returns timeline, budget, style and decision_maker, taking
// the direct request field first and the answers entry second. Values that
// are empty on both sides come back as nil.
func (r SubmitRequest) PromotedFields() map[string]any {
	return map[string]any{
		"timeline":       firstPresent(r.Timeline, r.Answers["timeline"]),
		"budget":         firstPresent(r.Budget, r.Answers["budget"]),
		"style":          firstPresent(r.Style, r.Answers["style"]),
		"decision_maker": firstPresent(r.DecisionMaker, r.Answers["decisionMaker"]),
	}
}

// CustomFields merges the answers with the promoted fields and the readiness score.
func (r SubmitRequest) CustomFields() map[string]any {
	fields := make(map[string]any, len(r.Answers)+5)
	for k, v := range r.Answers {
		fields[k] = v
	}
	for k, v := range r.PromotedFields() {
		fields[k] = v
	}
	if r.ReadinessScore != nil {
		fields["readiness_score"] = *r.ReadinessScore
	} else {
		fields["readiness_score"] = nil
	}
	return fields
}

// FirstForwardedIP returns the client address from an X-Forwarded-For value.
func FirstForwardedIP(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}

func firstPresent(direct string, fallback any) any {
	if direct != "" {
		return direct
	}
	if present(fallback) {
		return fallback
	}
	return nil
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	default:
		return true
	}
}

func nullable(s string) *string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	if s == "" {
		return nil
	}
	return &s
}
