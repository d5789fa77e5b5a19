package ingest

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

// ReadCollection parses a manual collection CSV (columns Part, Color,
// Quantity, Location) into part records tagged with the given source label.
// Malformed rows are quarantined individually; only an unreadable header
// fails the whole file.
func ReadCollection(r io.Reader, label string) ([]parts.PartRecord, []RowError, error) {
	source := parts.SourceRef{Kind: parts.SourceManual, ID: label}

	var records []parts.PartRecord
	rowErrs, err := readRows(r, []string{"part", "color", "quantity", "location"}, func(h header, row []string) error {
		color, err := h.getInt(row, "color")
		if err != nil {
			return err
		}
		quantity, err := h.getInt(row, "quantity")
		if err != nil {
			return err
		}
		record := parts.PartRecord{
			Key:      parts.PartKey{PartNumber: h.get(row, "part"), ColorID: color},
			Quantity: quantity,
			Location: h.get(row, "location"),
			Source:   source,
		}
		if err := record.Validate(); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, nil, &errors.SourceError{Source: label, Err: err}
	}
	return records, rowErrs, nil
}

// ReadCollectionFile reads a collection CSV from disk, labeling records
// with the file's base name.
func ReadCollectionFile(path string) ([]parts.PartRecord, []RowError, error) {
	label := filepath.Base(path)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &errors.SourceError{Source: label, Err: err}
	}
	defer func() { _ = file.Close() }()
	return ReadCollection(file, label)
}

// ReadWantedList parses a wanted-list CSV (columns Part, Color, Quantity).
// Duplicate part keys are summed into one wanted item, keeping first-
// occurrence order.
func ReadWantedList(r io.Reader, label string) ([]parts.WantedItem, []RowError, error) {
	var (
		items   []parts.WantedItem
		indexOf = make(map[parts.PartKey]int)
	)
	rowErrs, err := readRows(r, []string{"part", "color", "quantity"}, func(h header, row []string) error {
		color, err := h.getInt(row, "color")
		if err != nil {
			return err
		}
		quantity, err := h.getInt(row, "quantity")
		if err != nil {
			return err
		}
		item := parts.WantedItem{
			Key:      parts.PartKey{PartNumber: h.get(row, "part"), ColorID: color},
			Quantity: quantity,
		}
		if err := item.Validate(); err != nil {
			return err
		}
		if i, ok := indexOf[item.Key]; ok {
			items[i].Quantity += item.Quantity
			return nil
		}
		indexOf[item.Key] = len(items)
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, nil, &errors.SourceError{Source: label, Err: err}
	}
	return items, rowErrs, nil
}

// ReadWantedListFile reads a wanted-list CSV from disk.
func ReadWantedListFile(path string) ([]parts.WantedItem, []RowError, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &errors.SourceError{Source: filepath.Base(path), Err: err}
	}
	defer func() { _ = file.Close() }()
	return ReadWantedList(file, filepath.Base(path))
}
