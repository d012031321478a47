package allocation

import (
	"errors"
	"strings"
)

var (
	// ErrMissingColumns is matched by *MissingColumnsError.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrMalformedCatalog wraps every catalog decode failure.
	ErrMalformedCatalog = errors.New("malformed catalog")
)

// MissingColumnsError names every required column absent from a roster.
// It is reported once per roster, never per row.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }
