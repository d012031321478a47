// Package report renders allocation results as HTML, CSV, PDF and terminal tables.
package report

import (
	"strconv"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

// TableColumns is the column order of the allocations table in every format
// except CSV, which also carries the subject breakdown.
var TableColumns = []string{
	allocation.ColStudentID, allocation.ColFirstName, allocation.ColLastName,
	allocation.ColGender, allocation.ColSection, allocation.ColAggregate,
	allocation.ColChoice1, allocation.ColChoice2, allocation.ColChoice3,
	"University", "Course",
}

// tableCells returns a row's values in TableColumns order.
func tableCells(r allocation.Row) []string {
	return []string{
		r.StudentID, r.FirstName, r.LastName, r.Gender, r.Section,
		FormatAggregate(r.Aggregate),
		r.Choices[0], r.Choices[1], r.Choices[2],
		r.University, r.Course,
	}
}

// FormatScore prints a score without trailing zeros.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatAggregate prints an aggregate with two decimals.
func FormatAggregate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
