package allocation

import "strings"

// Canonical column names.
const (
	ColStudentID = "Student ID"
	ColFirstName = "FirstName"
	ColLastName  = "LastName"
	ColGender    = "Gender"
	ColSection   = "Section"
	ColChoice1   = "Choice 1"
	ColChoice2   = "Choice 2"
	ColChoice3   = "Choice 3"
	ColAggregate = "Aggregate"
)

// AggregateKey is the min_scores key that constrains the aggregate rather than a subject.
const AggregateKey = "aggregate"

// MaxChoices is the number of ranked choice slots read per student.
const MaxChoices = 3

// Subjects is the fixed subject universe. Aggregates are summed over exactly these.
var Subjects = []string{
	"English",
	"Mathematics",
	"Additional Math",
	"Physics",
	"Chemistry",
	"Biology",
	"History",
	"Geography",
	"Civics",
	"ICT",
	"Accounting",
	"Religion",
	"Commerce",
}

// RequiredColumns must be present in every roster after alias resolution.
var RequiredColumns = []string{ColStudentID, ColFirstName, ColLastName, ColGender, ColSection}

// ChoiceColumns are the ranked preference slots, in priority order.
var ChoiceColumns = []string{ColChoice1, ColChoice2, ColChoice3}

// ColumnAliases maps lower-cased, trimmed header names to canonical names.
var ColumnAliases = map[string]string{
	"student id": ColStudentID,
	"firstname":  ColFirstName,
	"first name": ColFirstName,
	"lastname":   ColLastName,
	"last name":  ColLastName,
	"gender":     ColGender,
	"section":    ColSection,
	"choice 1":   ColChoice1,
	"choice1":    ColChoice1,
	"choice 2":   ColChoice2,
	"choice2":    ColChoice2,
	"choice 3":   ColChoice3,
	"choice3":    ColChoice3,

	"english":                "English",
	"mathematics":            "Mathematics",
	"additional math":        "Additional Math",
	"additional mathematics": "Additional Math",
	"add math":               "Additional Math",
	"physics":                "Physics",
	"chemistry":              "Chemistry",
	"biology":                "Biology",
	"history":                "History",
	"geography":              "Geography",
	"civics":                 "Civics",
	"ict":                    "ICT",
	"accounting":             "Accounting",
	"religion":               "Religion",
	"commerce":               "Commerce",
}

// CanonicalColumn resolves a raw header through ColumnAliases.
// Unknown headers come back trimmed but otherwise unchanged.
func CanonicalColumn(name string) string {
	trimmed := strings.TrimSpace(name)
	if c, ok := ColumnAliases[strings.ToLower(trimmed)]; ok {
		return c
	}
	return trimmed
}
