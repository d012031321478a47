package allocation

// PlacementCount is the number of students placed on one university/course pair.
type PlacementCount struct {
	University string `json:"university"`
	Course     string `json:"course"`
	Students   int    `json:"students"`
}

// Summary aggregates a result set for reports.
type Summary struct {
	Students     int              `json:"students"`
	Allocated    int              `json:"allocated"`
	NotAllocated int              `json:"not_allocated"`
	Overridden   int              `json:"overridden"`
	FirstChoice  int              `json:"first_choice"`
	Fallback     int              `json:"fallback"`
	Placements   []PlacementCount `json:"placements"`
}

// Summarize counts rows by outcome. Placements are listed in first-seen order
// and exclude the not-allocated sentinel.
func Summarize(rows []Row) Summary {
	s := Summary{Students: len(rows), Placements: []PlacementCount{}}
	pos := map[[2]string]int{}
	for _, r := range rows {
		switch r.Source {
		case SourceNone:
			s.NotAllocated++
			continue
		case SourceOverride:
			s.Overridden++
		case SourceFallback:
			s.Fallback++
		case SourceChoice:
			if r.ChoiceRank == 1 {
				s.FirstChoice++
			}
		}
		s.Allocated++
		k := [2]string{r.University, r.Course}
		i, ok := pos[k]
		if !ok {
			i = len(s.Placements)
			pos[k] = i
			s.Placements = append(s.Placements, PlacementCount{University: r.University, Course: r.Course})
		}
		s.Placements[i].Students++
	}
	return s
}
