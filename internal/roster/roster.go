// Package roster decodes uploaded student tables into an allocation.Roster.
package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

var (
	ErrEmptyRoster       = errors.New("roster is empty")
	ErrUnsupportedFormat = errors.New("unsupported roster format")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatFromName maps a file name to a Format; "" when the extension is unknown.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".json":
		return FormatJSON
	}
	return ""
}

// Decode reads a roster, choosing the decoder from filename. Unknown
// extensions are sniffed: a leading '[' means JSON, anything else CSV.
func Decode(r io.Reader, filename string) (allocation.Roster, error) {
	format := FormatFromName(filename)
	if format == "" {
		br := bufio.NewReader(r)
		format = sniff(br)
		r = br
	}
	switch format {
	case FormatCSV:
		return DecodeCSV(r)
	case FormatXLSX:
		return DecodeXLSX(r)
	case FormatJSON:
		return DecodeJSON(r)
	}
	return allocation.Roster{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

func sniff(br *bufio.Reader) Format {
	for {
		b, err := br.Peek(1)
		if err != nil || len(b) == 0 {
			return FormatCSV
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case '[':
			return FormatJSON
		}
		// xlsx files are zip archives
		if pk, _ := br.Peek(2); bytes.Equal(pk, []byte("PK")) {
			return FormatXLSX
		}
		return FormatCSV
	}
}

// DecodeCSV reads a header row followed by data rows.
func DecodeCSV(r io.Reader) (allocation.Roster, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return allocation.Roster{}, ErrEmptyRoster
	}
	if err != nil {
		return allocation.Roster{}, fmt.Errorf("csv header: %w", err)
	}
	hdr[0] = strings.TrimPrefix(hdr[0], "\ufeff")
	out := allocation.Roster{Columns: hdr}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return allocation.Roster{}, fmt.Errorf("csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// DecodeXLSX reads the first sheet of a workbook; its first row is the header.
func DecodeXLSX(r io.Reader) (allocation.Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return allocation.Roster{}, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return allocation.Roster{}, ErrEmptyRoster
	}
	// stored values, not the number-formatted display text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return allocation.Roster{}, fmt.Errorf("xlsx %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return allocation.Roster{}, ErrEmptyRoster
	}
	out := allocation.Roster{Columns: rows[0]}
	for _, rec := range rows[1:] {
		if blank(rec) {
			continue
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// DecodeJSON reads an array of flat objects. Columns are the union of keys,
// sorted, since object key order is not preserved.
func DecodeJSON(r io.Reader) (allocation.Roster, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		if errors.Is(err, io.EOF) {
			return allocation.Roster{}, ErrEmptyRoster
		}
		return allocation.Roster{}, fmt.Errorf("json: %w", err)
	}

	seen := map[string]struct{}{}
	var cols []string
	for _, o := range objs {
		for k := range o {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	out := allocation.Roster{Columns: cols, Rows: make([][]string, 0, len(objs))}
	for _, o := range objs {
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = cell(o[c])
		}
		if blank(rec) {
			continue
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
