// Package parts defines the core domain types for the brickpick matching
// engine: part identities, inventory records, wanted items, and the pickup
// plan produced by matching. All other packages build on these types.
package parts

import (
	"fmt"
	"strings"

	"github.com/bricktools/brickpick/pkg/errors"
)

// SourceKind identifies where a part record came from.
type SourceKind string

// Source kinds.
const (
	SourceManual SourceKind = "manual"
	SourceSet    SourceKind = "set"
)

// IsValid checks if the source kind is a known value.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceManual, SourceSet:
		return true
	default:
		return false
	}
}

// SourceRef names a single part source: a manual collection file or a set.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// String returns "kind:id" for logs and warnings.
func (r SourceRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// PartKey is the immutable composite identity of a part: its catalog part
// number plus a numeric color ID. It is comparable and used as a map key
// throughout the engine.
type PartKey struct {
	PartNumber string `json:"part_num"`
	ColorID    int    `json:"color_id"`
}

// String returns a human-readable "part (color N)" form.
func (k PartKey) String() string {
	return fmt.Sprintf("%s (color %d)", k.PartNumber, k.ColorID)
}

// Less defines a total order on part keys: by part number, then color ID.
func (k PartKey) Less(other PartKey) bool {
	if k.PartNumber != other.PartNumber {
		return k.PartNumber < other.PartNumber
	}
	return k.ColorID < other.ColorID
}

// Validate checks that the key is structurally usable.
func (k PartKey) Validate() error {
	if strings.TrimSpace(k.PartNumber) == "" {
		return errors.NewValidationError("part_num", k.PartNumber, "part number cannot be empty")
	}
	if k.ColorID < 0 {
		return errors.NewValidationError("color_id", k.ColorID, "color ID cannot be negative")
	}
	return nil
}

// PartRecord is a quantity of a part at a named storage location, tagged
// with the source it was ingested from. Records are immutable once created.
type PartRecord struct {
	Key      PartKey   `json:"key"`
	Quantity int       `json:"quantity"`
	Location string    `json:"location"`
	Source   SourceRef `json:"source"`
}

// Validate checks a record at the ingestion boundary.
func (r PartRecord) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if r.Quantity <= 0 {
		return errors.NewValidationError("quantity", r.Quantity, "quantity must be positive")
	}
	if strings.TrimSpace(r.Location) == "" {
		return errors.NewValidationError("location", r.Location, "location cannot be empty")
	}
	return nil
}

// WantedItem is one line of a wanted-parts list. Input only; never mutated
// by the engine.
type WantedItem struct {
	Key      PartKey `json:"key"`
	Quantity int     `json:"quantity"`
}

// Validate checks a wanted item at the ingestion boundary.
func (w WantedItem) Validate() error {
	if err := w.Key.Validate(); err != nil {
		return err
	}
	if w.Quantity <= 0 {
		return errors.NewValidationError("quantity", w.Quantity, "wanted quantity must be positive")
	}
	return nil
}
