package parts

import "time"

// InventoryLine is one line of a set inventory: a part key, its quantity in
// the set, and whether the line is a spare part.
type InventoryLine struct {
	Key      PartKey `json:"key"`
	Quantity int     `json:"quantity"`
	IsSpare  bool    `json:"is_spare"`
}

// SetInventory is the full part list of one set as fetched from the catalog
// service. Entries are never mutated in place; a re-fetch replaces the whole
// value.
type SetInventory struct {
	SetNumber string          `json:"set_number"`
	SetName   string          `json:"set_name"`
	FetchedAt time.Time       `json:"fetched_at"`
	Lines     []InventoryLine `json:"parts"`
}

// PartCount returns the number of distinct inventory lines.
func (inv *SetInventory) PartCount() int {
	return len(inv.Lines)
}

// Scaled returns the inventory lines with every quantity multiplied by the
// number of copies owned. Spare lines are dropped entirely unless
// includeSpares is set; the multiplier never applies to a line that is
// excluded. A multiplier below 1 is treated as 1.
func (inv *SetInventory) Scaled(multiplier int, includeSpares bool) []InventoryLine {
	if multiplier < 1 {
		multiplier = 1
	}
	lines := make([]InventoryLine, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		if line.IsSpare && !includeSpares {
			continue
		}
		line.Quantity *= multiplier
		lines = append(lines, line)
	}
	return lines
}
