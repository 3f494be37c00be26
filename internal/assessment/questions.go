// Package assessment runs the build-readiness questionnaire: a fixed list of
// questions answered strictly in order, scored once at the end and submitted
// as a single construction lead.
package assessment

import "time"

// QuestionKind selects how a step is answered.
type QuestionKind string

const (
	KindChoice       QuestionKind = "choice"
	KindEmailCapture QuestionKind = "email-capture"
	KindPhoneCapture QuestionKind = "phone-capture"
)

// AdvanceDelay is the pause renderers insert before showing the next step.
const AdvanceDelay = 300 * time.Millisecond

// Option is one selectable answer to a choice question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is one step of the questionnaire.
type Question struct {
	ID       string       `json:"id"`
	Prompt   string       `json:"question"`
	Subtitle string       `json:"subtitle,omitempty"`
	Kind     QuestionKind `json:"type"`
	Options  []Option     `json:"options,omitempty"`
}

// HasOption reports whether value is one of the question's listed options.
func (q Question) HasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

var questions = []Question{
	{
		ID:     "lotOwnership",
		Prompt: "Do you already own land in Baja California?",
		Kind:   KindChoice,
		Options: []Option{
			{"yes", "Yes, I own land"},
			{"looking", "No, but I'm looking"},
			{"need-help", "No, need help finding"},
		},
	},
	{
		ID:     "timeline",
		Prompt: "When would you like to start building?",
		Kind:   KindChoice,
		Options: []Option{
			{"immediately", "Within 3 months"},
			{"soon", "3-6 months"},
			{"planning", "6-12 months"},
			{"exploring", "Just exploring"},
		},
	},
	{
		ID:       "email",
		Prompt:   "Where should we send your personalized results?",
		Subtitle: "Get instant cost estimates + save your assessment",
		Kind:     KindEmailCapture,
	},
	{
		ID:     "budget",
		Prompt: "What's your target construction budget?",
		Kind:   KindChoice,
		Options: []Option{
			{"300-450", "$300K - $450K"},
			{"450-650", "$450K - $650K"},
			{"650-900", "$650K - $900K"},
			{"900+", "$900K+"},
		},
	},
	{
		ID:     "homeSize",
		Prompt: "How many bedrooms are you planning?",
		Kind:   KindChoice,
		Options: []Option{
			{"2", "2 Bedrooms"},
			{"3", "3 Bedrooms"},
			{"4", "4 Bedrooms"},
			{"5+", "5+ Bedrooms"},
		},
	},
	{
		ID:     "style",
		Prompt: "Which architectural style speaks to you?",
		Kind:   KindChoice,
		Options: []Option{
			{"california", "California Contemporary"},
			{"mediterranean", "Mediterranean Villa"},
			{"modern", "Modern Minimalist"},
			{"traditional", "Traditional Mexican"},
		},
	},
	{
		ID:     "features",
		Prompt: "What's your must-have feature?",
		Kind:   KindChoice,
		Options: []Option{
			{"ocean-view", "Ocean Views"},
			{"pool", "Pool & Outdoor Living"},
			{"sustainable", "Sustainable/Solar"},
			{"luxury", "High-End Finishes"},
		},
	},
	{
		ID:       "phone",
		Prompt:   "Want a personalized consultation call?",
		Subtitle: "Optional: Get a personalized consultation call",
		Kind:     KindPhoneCapture,
	},
	{
		ID:     "concerns",
		Prompt: "What's your biggest concern about building in Baja?",
		Kind:   KindChoice,
		Options: []Option{
			{"legal", "Legal process & permits"},
			{"quality", "Build quality & contractors"},
			{"timeline", "Timeline & delays"},
			{"communication", "Communication & oversight"},
		},
	},
	{
		ID:     "decisionMaker",
		Prompt: "Are you the primary decision-maker for this project?",
		Kind:   KindChoice,
		Options: []Option{
			{"yes", "Yes, it's my decision"},
			{"joint", "Joint decision with partner"},
			{"family", "Family decision"},
		},
	},
}

// Questions returns the questionnaire in order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// QuestionCount is the number of steps.
func QuestionCount() int { return len(questions) }

// QuestionAt returns the question for step, or false when out of range.
func QuestionAt(step int) (Question, bool) {
	if step < 0 || step >= len(questions) {
		return Question{}, false
	}
	return questions[step], true
}
