package assessment

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfman30/baja-build-leads/internal/leads"
)

const maxEmailLength = 254

var (
	contactNamePattern = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits          = regexp.MustCompile(`\D`)
)

// Outcome values recorded once the final submission returns.
const (
	OutcomeSubmitted = "submitted"
	OutcomeDuplicate = "duplicate"
	OutcomeDiscarded = "discarded"
)

// Session is one visitor's progress through the questionnaire. Steps only
// move forward; each call validates against the current question.
type Session struct {
	ID         string            `json:"id"`
	Step       int               `json:"step"`
	Answers    map[string]string `json:"answers"`
	Name       string            `json:"name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Honeypot   bool              `json:"honeypot,omitempty"`
	Submitting bool              `json:"submitting"`
	Completed  bool              `json:"completed"`
	Outcome    string            `json:"outcome,omitempty"`
	LeadID     string            `json:"lead_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSession starts at the first question.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Answers:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Current returns the question awaiting an answer, or false once every step
// has been answered.
func (s *Session) Current() (Question, bool) {
	if s.Completed || s.Submitting {
		return Question{}, false
	}
	return QuestionAt(s.Step)
}

func (s *Session) expect(questionID string, kind QuestionKind) (Question, error) {
	if s.Completed {
		return Question{}, ErrCompleted
	}
	if s.Submitting {
		return Question{}, ErrSubmitting
	}
	q, ok := QuestionAt(s.Step)
	if !ok || q.ID != questionID || q.Kind != kind {
		return Question{}, ErrWrongQuestion
	}
	return q, nil
}

// Answer records a choice for the current question. It returns true when the
// answer finished the questionnaire and the final submission is now owed;
// the session is then marked Submitting until Finish or Abort.
func (s *Session) Answer(questionID, value string) (bool, error) {
	q, err := s.expect(questionID, KindChoice)
	if err != nil {
		return false, err
	}
	if !q.HasOption(value) {
		return false, ErrInvalidOption
	}
	s.Answers[questionID] = value
	return s.advance(), nil
}

// SubmitContact handles the email-capture step. A filled website field marks
// the session as a bot: it advances without recording anything.
func (s *Session) SubmitContact(name, email, website string) (bool, error) {
	q, err := s.expect("email", KindEmailCapture)
	if err != nil {
		return false, err
	}
	if website != "" {
		s.Honeypot = true
		return s.advance(), nil
	}

	fields := make(map[string]string)
	if msg := validateContactName(name); msg != "" {
		fields["name"] = msg
	}
	if msg := validateContactEmail(email); msg != "" {
		fields["email"] = msg
	}
	if len(fields) > 0 {
		return false, &ValidationError{Fields: fields}
	}

	s.Name = name
	s.Email = email
	s.Answers[q.ID] = email
	return s.advance(), nil
}

// SubmitPhone handles the optional phone step. Blank means skipped.
func (s *Session) SubmitPhone(phone string) (bool, error) {
	q, err := s.expect("phone", KindPhoneCapture)
	if err != nil {
		return false, err
	}
	if phone == "" {
		s.Answers[q.ID] = leads.PhoneSkipped
		return s.advance(), nil
	}
	if msg := validatePhone(phone); msg != "" {
		return false, &ValidationError{Fields: map[string]string{"phone": msg}}
	}
	s.Phone = phone
	s.Answers[q.ID] = phone
	return s.advance(), nil
}

func (s *Session) advance() bool {
	if s.Step < QuestionCount()-1 {
		s.Step++
		return false
	}
	s.Submitting = true
	return true
}

// Finish records the outcome of the final submission.
func (s *Session) Finish(outcome, leadID string) {
	s.Submitting = false
	s.Completed = true
	s.Outcome = outcome
	s.LeadID = leadID
}

// Abort releases the submitting flag after a failed submission so the last
// question can be answered again.
func (s *Session) Abort() {
	s.Submitting = false
}

func validateContactName(name string) string {
	n := utf8.RuneCountInString(name)
	switch {
	case name == "":
		return "Name is required"
	case n < 2:
		return "Name must be at least 2 characters"
	case n > 100:
		return "Name is too long"
	case !contactNamePattern.MatchString(name):
		return "Please enter a valid name"
	}
	return ""
}

func validateContactEmail(email string) string {
	switch {
	case email == "":
		return "Email is required"
	case !emailPattern.MatchString(email):
		return "Please enter a valid email address"
	case len(email) > maxEmailLength:
		return "Email is too long"
	}
	return ""
}

func validatePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	switch {
	case len(digits) < 10:
		return "Phone number must be at least 10 digits"
	case len(digits) > 15:
		return "Phone number is too long"
	}
	return ""
}

func phoneScores(phone string) bool {
	if phone == "" || phone == leads.PhoneSkipped {
		return false
	}
	n := len(nonDigits.ReplaceAllString(phone, ""))
	return n >= 10 && n <= 15
}

// FormatPhone renders up to ten digits as (619) 555-0100 while typing.
// Longer input is returned unchanged.
func FormatPhone(value string) string {
	digits := nonDigits.ReplaceAllString(value, "")
	if len(digits) > 10 {
		return value
	}
	var b strings.Builder
	for i, r := range digits {
		switch i {
		case 0:
			b.WriteByte('(')
		case 3:
			b.WriteString(") ")
		case 6:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}
