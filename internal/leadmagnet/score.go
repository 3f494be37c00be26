package leadmagnet

const maxLeadScore = 100

// CalculateLeadScore weights timeline, budget, style and whether a phone
// number was given. The result never exceeds 100.
func CalculateLeadScore(f Form) int {
	score := 0

	switch f.Timeline {
	case "0-6":
		score += 40
	case "6-12":
		score += 25
	case "12+":
		score += 10
	case "research":
		score += 5
	}

	switch f.Budget {
	case "200-400K", "500-700k", "700k-1m", "1m-1.5m":
		score += 20
	case "flexible":
		score += 10
	}

	switch f.Style {
	case "california", "mediterranean", "modern":
		score += 15
	}

	if f.Phone != "" {
		score += 5
	}

	return min(score, maxLeadScore)
}
