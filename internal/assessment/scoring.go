package assessment

// Tier buckets a readiness score.
type Tier string

const (
	TierReady    Tier = "ready"
	TierPlanning Tier = "planning"
	TierResearch Tier = "research"
)

// Results is the scored outcome shown at the end of the questionnaire.
type Results struct {
	ReadinessScore int      `json:"readiness_score"`
	Tier           Tier     `json:"tier"`
	Recommendation string   `json:"recommendation"`
	NextSteps      []string `json:"next_steps"`
}

type tierCopy struct {
	recommendation string
	nextSteps      []string
}

var tiers = map[Tier]tierCopy{
	TierReady: {
		recommendation: "You're Ready to Start Building!",
		nextSteps: []string{
			"Schedule a site consultation",
			"Review our available 2025 build slots",
			"Get detailed cost breakdown",
			"Meet with our legal team",
		},
	},
	TierPlanning: {
		recommendation: "You're Well-Positioned to Begin Planning",
		nextSteps: []string{
			"Download our Planning Guide",
			"Review land acquisition options",
			"Schedule an introductory call",
			"View our portfolio & testimonials",
		},
	},
	TierResearch: {
		recommendation: "Let's Start Your Research Journey",
		nextSteps: []string{
			"Download our free Baja Build Guide",
			"Join our monthly webinar",
			"Explore our cost calculator",
			"Review FAQs & legal process",
		},
	},
}

// CalculateResults scores a set of answers:
//
//	lotOwnership == yes            +30
//	timeline immediately or soon   +25
//	any budget                     +20
//	decisionMaker == yes           +15
//	phone with 10-15 digits        +10
//
// 75 and above is ready, 50 and above planning, anything lower research.
func CalculateResults(answers map[string]string) Results {
	score := 0
	if answers["lotOwnership"] == "yes" {
		score += 30
	}
	if t := answers["timeline"]; t == "immediately" || t == "soon" {
		score += 25
	}
	if answers["budget"] != "" {
		score += 20
	}
	if answers["decisionMaker"] == "yes" {
		score += 15
	}
	if phoneScores(answers["phone"]) {
		score += 10
	}

	tier := TierResearch
	switch {
	case score >= 75:
		tier = TierReady
	case score >= 50:
		tier = TierPlanning
	}

	c := tiers[tier]
	steps := make([]string, len(c.nextSteps))
	copy(steps, c.nextSteps)
	return Results{
		ReadinessScore: score,
		Tier:           tier,
		Recommendation: c.recommendation,
		NextSteps:      steps,
	}
}
