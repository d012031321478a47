package allocation

import (
	"io"
	"log/slog"
	"strings"
)

// Sentinel placement for students no course admits.
const (
	NotAllocatedUniversity = "Not Allocated"
	NotAllocatedCourse     = "N/A"
)

// Source records which step of the search produced a placement.
type Source string

const (
	SourceOverride Source = "override"
	SourceChoice   Source = "choice"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Placement is the outcome of BestFit for one student.
type Placement struct {
	University string `json:"university"`
	Course     string `json:"course"`
	Source     Source `json:"source"`
	ChoiceRank int    `json:"choice_rank,omitempty"` // 1-based, set for SourceChoice
}

// Allocated is false only for the sentinel placement.
func (p Placement) Allocated() bool { return p.Source != SourceNone }

// BestFit returns the first placement in priority order: override, then each
// choice in rank order, then any eligible course. It is first-fit, not
// score-optimal.
func (c Catalog) BestFit(s Student, overrides Overrides) Placement {
	if ov, ok := overrides.Lookup(s.ID); ok {
		ov = ov.trimmed()
		return Placement{University: ov.University, Course: ov.Course, Source: SourceOverride}
	}

	for rank, choice := range s.Choices {
		if strings.TrimSpace(choice) == "" {
			continue
		}
		if p, ok := c.scan(s.Scores, choice); ok {
			p.Source = SourceChoice
			p.ChoiceRank = rank + 1
			return p
		}
	}
	if p, ok := c.scan(s.Scores, ""); ok {
		p.Source = SourceFallback
		return p
	}
	return Placement{University: NotAllocatedUniversity, Course: NotAllocatedCourse, Source: SourceNone}
}

// scan walks the catalog in declaration order. A non-empty name restricts the
// scan to courses with that name, compared case-insensitively.
func (c Catalog) scan(scores Scores, name string) (Placement, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, u := range c {
		for _, course := range u.Courses {
			if want != "" && strings.ToLower(course.Name) != want {
				continue
			}
			if IsEligible(scores, course) {
				return Placement{University: u.Name, Course: course.Name}, true
			}
		}
	}
	return Placement{}, false
}

// Row is one allocation result line.
type Row struct {
	StudentID  string    `json:"student_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Gender     string    `json:"gender"`
	Section    string    `json:"section"`
	Scores     Scores    `json:"scores"`
	Aggregate  float64   `json:"aggregate"`
	Choices    [3]string `json:"choices"`
	University string    `json:"university"`
	Course     string    `json:"course"`
	Source     Source    `json:"source"`
	ChoiceRank int       `json:"choice_rank,omitempty"`
}

// FullName is "FirstName LastName" with blanks collapsed.
func (r Row) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Result is the output of a batch allocation pass.
type Result struct {
	Rows     []Row     `json:"rows"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Find returns the first row for studentID (trimmed, exact match).
func (r *Result) Find(studentID string) (Row, bool) {
	if r == nil {
		return Row{}, false
	}
	id := strings.TrimSpace(studentID)
	for _, row := range r.Rows {
		if row.StudentID == id {
			return row, true
		}
	}
	return Row{}, false
}

// Len is the number of rows, 0 for a nil result.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

type Option func(*config)

type config struct {
	log *slog.Logger
}

// WithLogger routes coercion warnings and per-student debug lines to l.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.log = l } }

// Allocate normalizes the roster and places every student independently, in
// input order. Missing required columns abort the whole batch.
func Allocate(roster Roster, catalog Catalog, overrides Overrides, opts ...Option) (*Result, error) {
	cfg := &config{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, o := range opts {
		o(cfg)
	}

	students, warnings, err := Normalize(roster)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		cfg.log.Warn("score coerced to 0",
			slog.Int("row", w.Row),
			slog.String("student_id", w.StudentID),
			slog.String("column", w.Column),
			slog.String("value", w.Value))
	}

	rows := make([]Row, 0, len(students))
	for _, s := range students {
		p := catalog.BestFit(s, overrides)
		if !p.Allocated() {
			cfg.log.Debug("no eligible course", slog.String("student_id", s.ID))
		}
		rows = append(rows, newRow(s, p))
	}
	return &Result{Rows: rows, Warnings: warnings}, nil
}

func newRow(s Student, p Placement) Row {
	row := Row{
		StudentID:  s.ID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Gender:     s.Gender,
		Section:    s.Section,
		Scores:     s.Scores,
		Aggregate:  s.Scores.Aggregate(),
		University: p.University,
		Course:     p.Course,
		Source:     p.Source,
		ChoiceRank: p.ChoiceRank,
	}
	copy(row.Choices[:], s.Choices)
	return row
}
