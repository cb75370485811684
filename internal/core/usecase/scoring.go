package usecase

import "github.com/duihelp/leadgen/internal/core/domain"

const (
	webFormBaseScore = 5
	voiceBaseScore   = 7
)

// ScoreLead computes the 0-10 urgency score used for routing priority.
func ScoreLead(d domain.CaseDetails) int {
	score := webFormBaseScore
	if d.Source.IsVoiceChannel() {
		score = voiceBaseScore
	}

	switch d.ArrestRecency {
	case domain.RecencyToday:
		score += 3
	case domain.RecencyThisWeek:
		score += 2
	case domain.RecencyThisMonth:
		score++
	}

	for _, flag := range []bool{d.HasAccident, d.HasInjury, d.HasCDL, d.RepeatOffense()} {
		if flag {
			score++
		}
	}

	if score > domain.MaxUrgencyScore {
		return domain.MaxUrgencyScore
	}
	if score < domain.MinUrgencyScore {
		return domain.MinUrgencyScore
	}
	return score
}
