package parts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellRoundTrip(t *testing.T) {
	cells := []Cell{
		{Key: PartKey{PartNumber: "3001", ColorID: 5}, Location: "Drawer A"},
		{Key: PartKey{PartNumber: "3001pr0001", ColorID: 0}, Location: "Box 12 / shelf 3"},
		{Key: PartKey{PartNumber: "970c00", ColorID: 9999}, Location: "Set 60393-1"},
		// Delimiter characters inside part numbers and locations must survive.
		{Key: PartKey{PartNumber: "odd:part", ColorID: 1}, Location: "bin@home"},
		{Key: PartKey{PartNumber: "a@b:c", ColorID: 42}, Location: `back\slash : drawer @ 2`},
		{Key: PartKey{PartNumber: `\`, ColorID: 0}, Location: `\\`},
	}

	for _, cell := range cells {
		t.Run(cell.String(), func(t *testing.T) {
			decoded, err := ParseCell(cell.String())
			require.NoError(t, err)
			assert.Equal(t, cell, decoded)
		})
	}
}

func TestCellString(t *testing.T) {
	cell := Cell{Key: PartKey{PartNumber: "3001", ColorID: 5}, Location: "Drawer A"}
	assert.Equal(t, "3001:5@Drawer A", cell.String())

	escaped := Cell{Key: PartKey{PartNumber: "odd:part", ColorID: 1}, Location: "bin@2"}
	assert.Equal(t, `odd\:part:1@bin\@2`, escaped.String())
}

func TestParseCellErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separators", "3001"},
		{"no location separator", "3001:5"},
		{"non-numeric color", "3001:red@Drawer A"},
		{"empty part", ":5@Drawer A"},
		{"empty location", "3001:5@"},
		{"dangling escape", `3001:5@Drawer\`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCell(tc.input)
			assert.Error(t, err)
		})
	}
}

func TestParseCellLenientLocation(t *testing.T) {
	// A raw '@' after the first one belongs to the location; users typing
	// cell refs by hand should not need to escape it.
	cell, err := ParseCell("3001:5@bin@2")
	require.NoError(t, err)
	assert.Equal(t, "bin@2", cell.Location)

	// Re-encoding escapes it, and the escaped form decodes identically.
	again, err := ParseCell(cell.String())
	require.NoError(t, err)
	assert.Equal(t, cell, again)
}
