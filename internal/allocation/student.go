package allocation

import (
	"math"
	"strconv"
	"strings"
)

// Scores maps subject name to score. Subjects that are absent count as 0.
type Scores map[string]float64

// Get returns the score for subject, or 0 when absent.
func (s Scores) Get(subject string) float64 {
	return s[subject]
}

// Aggregate sums the fixed subject universe, rounded to 2 decimals.
func (s Scores) Aggregate() float64 {
	total := 0.0
	for _, subj := range Subjects {
		v := s[subj]
		if math.IsNaN(v) {
			continue
		}
		total += v
	}
	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Student is a normalized roster row.
type Student struct {
	ID        string   `json:"student_id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Gender    string   `json:"gender"`
	Section   string   `json:"section"`
	Scores    Scores   `json:"scores"`
	Choices   []string `json:"choices"`
}

// ParseScore coerces a raw cell into a score. ok is false only when the cell
// held something non-blank that is not a finite number; the score is then 0.
func ParseScore(raw string) (score float64, ok bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// DedupeChoices drops blank choices and case-insensitive repeats, keeping the
// first casing seen, and caps the result at MaxChoices.
func DedupeChoices(raw []string) []string {
	out := make([]string, 0, MaxChoices)
	seen := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) == MaxChoices {
			break
		}
	}
	return out
}
