package allocation

// IsEligible reports whether scores satisfy every bound on course.
// An aggregate minimum is checked first and short-circuits the subject checks.
func IsEligible(scores Scores, course Course) bool {
	if floor, ok := course.MinScores[AggregateKey]; ok && scores.Aggregate() < floor {
		return false
	}
	for subj, floor := range course.MinScores {
		if subj == AggregateKey {
			continue
		}
		if scores.Get(subj) < floor {
			return false
		}
	}
	for subj, ceiling := range course.MaxScores {
		if scores.Get(subj) > ceiling {
			return false
		}
	}
	return true
}
