package allocation

import (
	"encoding/json"
	"strings"
)

// ManualOverride stands in for an override field that was not supplied at all.
// A field supplied as "" stays "".
const ManualOverride = "Manual Override"

// Override forces a student into a university/course pair, bypassing eligibility.
type Override struct {
	University string `json:"University"`
	Course     string `json:"Course"`
}

// UnmarshalJSON fills absent keys with ManualOverride.
func (o *Override) UnmarshalJSON(data []byte) error {
	var raw struct {
		University *string `json:"University"`
		Course     *string `json:"Course"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Override{University: orManual(raw.University), Course: orManual(raw.Course)}
	return nil
}

func orManual(v *string) string {
	if v == nil {
		return ManualOverride
	}
	return *v
}

func (o Override) trimmed() Override {
	return Override{
		University: strings.TrimSpace(o.University),
		Course:     strings.TrimSpace(o.Course),
	}
}

// Overrides is keyed by trimmed Student ID.
type Overrides map[string]Override

// NormalizeOverrides trims keys and values and drops blank student IDs.
func NormalizeOverrides(raw map[string]Override) Overrides {
	out := make(Overrides, len(raw))
	for id, ov := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out[id] = ov.trimmed()
	}
	return out
}

// Clone returns an independent copy.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Merge returns o with other layered on top. Entries are only ever added or replaced.
func (o Overrides) Merge(other Overrides) Overrides {
	out := o.Clone()
	for k, v := range NormalizeOverrides(other) {
		out[k] = v
	}
	return out
}

// Lookup finds the override for a student ID, trimming it first.
func (o Overrides) Lookup(studentID string) (Override, bool) {
	ov, ok := o[strings.TrimSpace(studentID)]
	return ov, ok
}

// ParseOverridesJSON decodes {"<student id>": {"University": ..., "Course": ...}}.
// On malformed input it returns an empty set together with the decode error.
func ParseOverridesJSON(data []byte) (Overrides, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Overrides{}, nil
	}
	var raw map[string]Override
	if err := json.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}
	return NormalizeOverrides(raw), nil
}
