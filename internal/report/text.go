package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

// WriteTable prints the allocations table for a terminal.
func WriteTable(w io.Writer, rows []allocation.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(TableColumns)
	table.SetAutoWrapText(false)
	for _, r := range rows {
		table.Append(tableCells(r))
	}
	table.Render()
}

// WriteSummary prints outcome counts followed by per-course placements.
func WriteSummary(w io.Writer, s allocation.Summary) {
	totals := tablewriter.NewWriter(w)
	totals.SetHeader([]string{"Students", "Allocated", "Not Allocated", "Overridden", "First Choice", "Fallback"})
	totals.Append([]string{
		strconv.Itoa(s.Students), strconv.Itoa(s.Allocated), strconv.Itoa(s.NotAllocated),
		strconv.Itoa(s.Overridden), strconv.Itoa(s.FirstChoice), strconv.Itoa(s.Fallback),
	})
	totals.Render()

	if len(s.Placements) == 0 {
		return
	}
	placements := tablewriter.NewWriter(w)
	placements.SetHeader([]string{"University", "Course", "Students"})
	for _, p := range s.Placements {
		placements.Append([]string{p.University, p.Course, strconv.Itoa(p.Students)})
	}
	placements.Render()
}
