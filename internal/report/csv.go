package report

import (
	"encoding/csv"
	"io"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

// CSVColumns is the full export header: identity, subjects, aggregate, choices, placement.
func CSVColumns() []string {
	cols := []string{
		allocation.ColStudentID, allocation.ColFirstName, allocation.ColLastName,
		allocation.ColGender, allocation.ColSection,
	}
	cols = append(cols, allocation.Subjects...)
	return append(cols,
		allocation.ColAggregate,
		allocation.ColChoice1, allocation.ColChoice2, allocation.ColChoice3,
		"University", "Course")
}

func WriteCSV(w io.Writer, rows []allocation.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns()); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.StudentID, r.FirstName, r.LastName, r.Gender, r.Section}
		for _, subj := range allocation.Subjects {
			rec = append(rec, FormatScore(r.Scores.Get(subj)))
		}
		rec = append(rec, FormatAggregate(r.Aggregate), r.Choices[0], r.Choices[1], r.Choices[2], r.University, r.Course)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
