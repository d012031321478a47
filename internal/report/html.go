package report

import (
	"html/template"
	"io"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

const NoAllocations = "No allocations available."

var tableTmpl = template.Must(template.New("table").Parse(
	`{{if not .Rows}}<p>` + NoAllocations + `</p>{{else}}<div class="table-container"><table>` +
		`<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>` +
		`{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}` +
		`</table></div>{{end}}`))

var studentTmpl = template.Must(template.New("student").Parse(`<h1>ScholaRoute: Student Allocation</h1>
<div class="card no-break">
  <p><strong>Student ID:</strong> {{.Row.StudentID}}</p>
  <p><strong>Name:</strong> {{.Row.FirstName}} {{.Row.LastName}}</p>
  <p><strong>Gender:</strong> {{.Row.Gender}}</p>
  <p><strong>Section:</strong> {{.Row.Section}}</p>
  <p><strong>Aggregate:</strong> {{.Aggregate}}</p>
  <p><strong>Choices:</strong> {{index .Row.Choices 0}} | {{index .Row.Choices 1}} | {{index .Row.Choices 2}}</p>
  <p><strong>Allocated University:</strong> {{.Row.University}}</p>
  <p><strong>Allocated Course:</strong> {{.Row.Course}}</p>
</div>
<h2>Subject breakdown</h2>
<table class="no-break">
  <tr>{{range .Subjects}}<th>{{.}}</th>{{end}}</tr>
  <tr>{{range .Scores}}<td>{{.}}</td>{{end}}</tr>
</table>
<p class="small">` + Disclaimer + `</p>
`))

// Disclaimer closes every student report.
const Disclaimer = "Allocation is computed against minimum/maximum entry requirements defined by participating universities."

// WriteHTMLTable renders the allocations table fragment.
func WriteHTMLTable(w io.Writer, rows []allocation.Row) error {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, tableCells(r))
	}
	return tableTmpl.Execute(w, struct {
		Columns []string
		Rows    [][]string
	}{TableColumns, cells})
}

// WriteStudentHTML renders one student's card and subject breakdown.
func WriteStudentHTML(w io.Writer, row allocation.Row) error {
	scores := make([]string, 0, len(allocation.Subjects))
	for _, subj := range allocation.Subjects {
		scores = append(scores, FormatScore(row.Scores.Get(subj)))
	}
	return studentTmpl.Execute(w, struct {
		Row       allocation.Row
		Aggregate string
		Subjects  []string
		Scores    []string
	}{row, FormatAggregate(row.Aggregate), allocation.Subjects, scores})
}
