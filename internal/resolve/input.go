package resolve

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"secureflag-tools/internal/domain"
)

const (
	colUser       = "User"
	colActivity   = "Activity"
	colTechnology = "Technology"
	colType       = "Type"
	colUUID       = "UUID"
)

var requiredColumns = []string{colUser, colActivity, colTechnology, colType}

// resolvedHeader is the fixed layout of the -resolved.csv file.
var resolvedHeader = []string{colUser, colActivity, colTechnology, colType, colUUID}

// MissingColumnsError aborts a run before any row is looked at.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "required column(s) missing: " + strings.Join(e.Columns, ", ")
}

// InvalidEncodingError reports input that is neither UTF-8 nor BOM-marked
// UTF-16. Line is 1-based.
type InvalidEncodingError struct {
	Line int
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("input is not valid UTF-8 (line %d)", e.Line)
}

// ResolvedPath derives "<base>-resolved.csv" from the input path, which
// must carry a lowercase .csv extension.
func ResolvedPath(input string) (string, error) {
	ext := filepath.Ext(input)
	if ext != ".csv" {
		return "", errors.New("input file must have lowercase .csv extension")
	}
	return strings.TrimSuffix(input, ext) + "-resolved.csv", nil
}

func hasUTF16BOM(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0xFE, 0xFF}) || bytes.HasPrefix(b, []byte{0xFF, 0xFE})
}

// invalidUTF8Line returns the line of the first invalid UTF-8 sequence in b,
// or 0 when b is valid.
func invalidUTF8Line(b []byte) int {
	if utf8.Valid(b) {
		return 0
	}
	line := 1
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		b = b[size:]
	}
	return line
}

func normalizeHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "\ufeff"))
}

// ReadAssignments parses the user-supplied CSV. Header names are matched
// after trimming whitespace and a byte-order mark; UTF-16 input with a BOM is
// decoded as well. Any other input must be valid UTF-8. UUID is the only
// optional column.
func ReadAssignments(r io.Reader) ([]domain.AssignmentRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resolve: read input: %w", err)
	}
	if !hasUTF16BOM(raw) {
		if line := invalidUTF8Line(raw); line > 0 {
			return nil, &InvalidEncodingError{Line: line}
		}
	}
	decoded := transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("resolve: read header: %w", err)
	}

	// A repeated header name maps to its last occurrence.
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []domain.AssignmentRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
		rows = append(rows, domain.AssignmentRow{
			User:       field(rec, colUser),
			Activity:   field(rec, colActivity),
			Technology: field(rec, colTechnology),
			Type:       field(rec, colType),
			UUID:       strings.TrimSpace(field(rec, colUUID)),
		})
	}
	return rows, nil
}

// WriteResolved writes the normalized five-column file.
func WriteResolved(w io.Writer, rows []domain.AssignmentRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resolvedHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.User, r.Activity, r.Technology, r.Type, r.UUID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResolved reads back a file produced by WriteResolved.
func ReadResolved(r io.Reader) ([]domain.AssignmentRow, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("resolve: read resolved header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(resolvedHeader, ",") {
		return nil, fmt.Errorf("resolve: unexpected resolved header %q", header)
	}

	var rows []domain.AssignmentRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
		rows = append(rows, domain.AssignmentRow{
			User:       rec[0],
			Activity:   rec[1],
			Technology: rec[2],
			Type:       rec[3],
			UUID:       rec[4],
		})
	}
	return rows, nil
}
