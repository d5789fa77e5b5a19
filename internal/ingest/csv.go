// Package ingest reads raw part sources: manual collection CSV files,
// wanted-list CSV files, and the owned-sets manifest. Parsing validates each
// row individually; malformed rows are quarantined with their line numbers
// instead of failing the whole file.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bricktools/brickpick/pkg/errors"
)

// RowError records a single quarantined row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// header maps logical field names to column indexes, matched
// case-insensitively against a set of accepted spellings per field.
type header map[string]int

// fieldNames lists the accepted column spellings for each logical field.
var fieldNames = map[string][]string{
	"part":     {"part", "part number", "part_num", "partnumber"},
	"color":    {"color", "colour", "color id", "color_id"},
	"quantity": {"quantity", "qty"},
	"location": {"location", "storage", "bin"},
	"set":      {"set", "set number", "set_num", "set_number"},
	"spares":   {"includes spares", "include spares", "spares", "includes_spares"},
}

func parseHeader(row []string, required ...string) (header, error) {
	byName := make(map[string]int, len(row))
	for i, col := range row {
		byName[strings.ToLower(strings.TrimSpace(col))] = i
	}

	h := make(header, len(required))
	var missing []string
	for _, field := range required {
		found := false
		for _, name := range fieldNames[field] {
			if idx, ok := byName[name]; ok {
				h[field] = idx
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("header", row,
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")))
	}
	return h, nil
}

func (h header) get(row []string, field string) string {
	idx, ok := h[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (h header) getInt(row []string, field string) (int, error) {
	raw := h.get(row, field)
	if raw == "" {
		return 0, errors.NewValidationError(field, raw, "value is empty")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(field, raw, "value must be an integer")
	}
	return v, nil
}

// readRows drives a CSV reader, calling row for every data row and
// collecting per-row failures. The CSV reader is configured leniently:
// rows with a different field count than the header are still handed to
// the row callback for validation.
func readRows(r io.Reader, required []string, row func(h header, record []string) error) ([]RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.NewValidationError("file", nil, "file is empty")
		}
		return nil, err
	}
	h, err := parseHeader(headerRow, required...)
	if err != nil {
		return nil, err
	}

	var rowErrs []RowError
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return rowErrs, nil
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if isBlank(record) {
			continue
		}
		if err := row(h, record); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
		}
	}
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// parseBool accepts the spellings collection files use for booleans.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0", "":
		return false, nil
	default:
		return false, errors.NewValidationError("bool", raw, "value must be a boolean")
	}
}
