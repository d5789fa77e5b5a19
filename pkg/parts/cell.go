package parts

import (
	"strconv"
	"strings"

	"github.com/bricktools/brickpick/pkg/errors"
)

// Cell addresses one slot of found-progress tracking: a part key at a
// specific location. Cells cross serialization boundaries (CLI arguments,
// snapshot files), so they carry a lossless string codec: String and
// ParseCell are exact inverses for every valid cell, including part numbers
// and locations containing the delimiter characters.
type Cell struct {
	Key      PartKey `json:"key"`
	Location string  `json:"location"`
}

// Codec delimiters. Occurrences inside part numbers or locations are
// backslash-escaped.
const (
	cellKeySep = ':'
	cellLocSep = '@'
	cellEscape = '\\'
)

// String encodes the cell as "part:color@location" with delimiters escaped.
func (c Cell) String() string {
	var b strings.Builder
	b.Grow(len(c.Key.PartNumber) + len(c.Location) + 8)
	escapeCellField(&b, c.Key.PartNumber)
	b.WriteByte(cellKeySep)
	b.WriteString(strconv.Itoa(c.Key.ColorID))
	b.WriteByte(cellLocSep)
	escapeCellField(&b, c.Location)
	return b.String()
}

// ParseCell decodes a string produced by Cell.String.
func ParseCell(s string) (Cell, error) {
	part, rest, err := splitCellField(s, cellKeySep)
	if err != nil {
		return Cell{}, errors.NewValidationError("cell", s, "missing ':' between part number and color")
	}
	colorStr, rest, err := splitCellField(rest, cellLocSep)
	if err != nil {
		return Cell{}, errors.NewValidationError("cell", s, "missing '@' between color and location")
	}
	color, err := strconv.Atoi(colorStr)
	if err != nil {
		return Cell{}, errors.NewValidationError("cell", s, "color must be an integer")
	}
	location, err := unescapeCellField(rest)
	if err != nil {
		return Cell{}, errors.NewValidationError("cell", s, "dangling escape in location")
	}
	cell := Cell{Key: PartKey{PartNumber: part, ColorID: color}, Location: location}
	if cell.Key.PartNumber == "" {
		return Cell{}, errors.NewValidationError("cell", s, "part number cannot be empty")
	}
	if cell.Location == "" {
		return Cell{}, errors.NewValidationError("cell", s, "location cannot be empty")
	}
	return cell, nil
}

func escapeCellField(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case cellKeySep, cellLocSep, cellEscape:
			b.WriteByte(cellEscape)
		}
		b.WriteByte(s[i])
	}
}

// splitCellField unescapes up to the first unescaped sep and returns the
// decoded prefix plus the raw remainder.
func splitCellField(s string, sep byte) (field, rest string, err error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case cellEscape:
			if i+1 >= len(s) {
				return "", "", errors.ErrInvalidInput
			}
			i++
			b.WriteByte(s[i])
		case sep:
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(s[i])
		}
	}
	return "", "", errors.ErrInvalidInput
}

func unescapeCellField(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == cellEscape {
			if i+1 >= len(s) {
				return "", errors.ErrInvalidInput
			}
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String(), nil
}
