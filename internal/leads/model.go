package leads

import (
	"time"
)

// Lead sources accepted by the ingestion endpoint.
const (
	SourceLandingPage  = "landing_page"
	SourceReferral     = "referral"
	SourceDirect       = "direct"
	SourceConstruction = "construction"
	SourceLeadMagnet   = "lead_magnet"
)

// StatusNew is the only status this service ever writes.
const StatusNew = "new"

// PhoneSkipped is the sentinel sent by forms when the visitor declines to give a phone.
const PhoneSkipped = "skipped"

// Lead represents one prospective customer inquiry.
type Lead struct {
	ID             string         `json:"id"`
	TenantID       *string        `json:"tenant_id"`
	LandingPageID  *string        `json:"landing_page_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          *string        `json:"phone"`
	Source         string         `json:"source"`
	CustomFields   map[string]any `json:"custom_fields"`
	ReadinessScore *float64       `json:"readiness_score"`
	IPAddress      *string        `json:"ip_address"`
	UserAgent      *string        `json:"user_agent"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SubmitRequest is the JSON body accepted by POST /api/submit-lead. The
// top-level timeline/budget/style/decisionMaker fields win over the keys of
// the same name inside Answers.
type SubmitRequest struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Source         string         `json:"source"`
	Answers        map[string]any `json:"answers"`
	ReadinessScore *float64       `json:"readiness_score"`
	Timeline       string         `json:"timeline"`
	Budget         string         `json:"budget"`
	Style          string         `json:"style"`
	DecisionMaker  string         `json:"decisionMaker"`
}

// Provenance captures where a submission came from.
type Provenance struct {
	IPAddress string
	UserAgent string
	Referer   string
}

// Defaults are deployment-level identifiers stamped on every lead.
type Defaults struct {
	TenantID      string
	LandingPageID string
}

// SubmitResult is the outcome of a submission. Duplicate is true when the
// (email, source) pair was already stored; Lead is then the original record.
type SubmitResult struct {
	Lead      *Lead
	Duplicate bool
}

// DefaultListLimit applies when a listing does not ask for a page size.
const DefaultListLimit = 50

// ListFilter narrows admin listings.
type ListFilter struct {
	Source string
	Limit  int
	Offset int
}
