package allocation

import (
	"fmt"
	"strings"
)

// Roster is a decoded table of student rows. Each row is positionally aligned
// with Columns; short rows read as blank for the missing cells.
type Roster struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Warning flags a cell that was coerced to 0 because it did not parse as a number.
type Warning struct {
	Row       int    `json:"row"` // 1-based data row
	StudentID string `json:"student_id"`
	Column    string `json:"column"`
	Value     string `json:"value"`
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d (student %q): %s=%q is not numeric, using 0", w.Row, w.StudentID, w.Column, w.Value)
}

// columnIndex maps canonical column name -> position. First occurrence wins.
func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		canon := CanonicalColumn(c)
		if _, ok := idx[canon]; !ok {
			idx[canon] = i
		}
	}
	return idx
}

type rowReader struct {
	idx map[string]int
	rec []string
}

func (r rowReader) get(col string) (string, bool) {
	i, ok := r.idx[col]
	if !ok || i >= len(r.rec) {
		return "", false
	}
	return r.rec[i], true
}

func (r rowReader) text(col string) string {
	v, _ := r.get(col)
	return strings.TrimSpace(v)
}

// Normalize resolves column aliases and converts every row into a Student.
// A roster missing any required column yields a *MissingColumnsError and no students.
func Normalize(r Roster) ([]Student, []Warning, error) {
	idx := columnIndex(r.Columns)

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Columns: missing}
	}

	students := make([]Student, 0, len(r.Rows))
	var warnings []Warning
	for i, rec := range r.Rows {
		rr := rowReader{idx: idx, rec: rec}
		s := Student{
			ID:        rr.text(ColStudentID),
			FirstName: rr.text(ColFirstName),
			LastName:  rr.text(ColLastName),
			Gender:    rr.text(ColGender),
			Section:   rr.text(ColSection),
			Scores:    make(Scores, len(Subjects)),
		}
		for _, subj := range Subjects {
			raw, _ := rr.get(subj)
			score, ok := ParseScore(raw)
			if !ok {
				warnings = append(warnings, Warning{Row: i + 1, StudentID: s.ID, Column: subj, Value: raw})
			}
			s.Scores[subj] = score
		}
		raw := make([]string, 0, len(ChoiceColumns))
		for _, c := range ChoiceColumns {
			raw = append(raw, rr.text(c))
		}
		s.Choices = DedupeChoices(raw)
		students = append(students, s)
	}
	return students, warnings, nil
}
