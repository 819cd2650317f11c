package service

// CompatibilityScore rates how well a candidate fits a subject, on a 0-100
// scale, and explains the rating. Deterministic: same inputs, same output.
//
// Base 50, +15 per shared personality trait, up to +25 for solved problems
// (one point per five solved), up to +20 for the current streak, capped at
// 100.
func CompatibilityScore(subjectTraits, candidateTraits []string, problemsSolved, currentStreak int) (int, string) {
	shared := sharedTraitCount(subjectTraits, candidateTraits)

	score := 50
	score += shared * 15
	score += minInt(problemsSolved/5, 25)
	score += minInt(currentStreak, 20)
	if score > 100 {
		score = 100
	}

	return score, compatibilityReason(shared, problemsSolved, currentStreak)
}

// compatibilityReason picks the first matching explanation
func compatibilityReason(shared, problemsSolved, currentStreak int) string {
	switch {
	case shared > 0 && currentStreak > 0:
		return "Shared personality traits and active problem solver"
	case shared > 0:
		return "Similar personality traits"
	case currentStreak > 5:
		return "Active streak maintainer"
	case problemsSolved > 10:
		return "Experienced problem solver"
	default:
		return "New coding companion"
	}
}

// sharedTraitCount counts distinct traits present in both lists
func sharedTraitCount(subjectTraits, candidateTraits []string) int {
	if len(subjectTraits) == 0 || len(candidateTraits) == 0 {
		return 0
	}

	candidateSet := make(map[string]bool, len(candidateTraits))
	for _, trait := range candidateTraits {
		candidateSet[trait] = true
	}

	seen := make(map[string]bool, len(subjectTraits))
	shared := 0
	for _, trait := range subjectTraits {
		if candidateSet[trait] && !seen[trait] {
			seen[trait] = true
			shared++
		}
	}
	return shared
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
