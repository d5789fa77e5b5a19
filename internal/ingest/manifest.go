package ingest

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/bricktools/brickpick/pkg/errors"
)

// OwnedSet is one entry of the owned-sets manifest: a set the collector
// owns, with how many copies and whether its spare parts count as available.
type OwnedSet struct {
	SetNumber     string `yaml:"set_number"`
	Quantity      int    `yaml:"quantity"`
	IncludeSpares bool   `yaml:"includes_spares"`
	Source        string `yaml:"source,omitempty"`
}

// Manifest is the collector's owned-sets list, persisted as YAML in the
// data directory.
type Manifest struct {
	Sets []OwnedSet `yaml:"sets"`
}

// Lookup returns the entry for a set number, if present.
func (m *Manifest) Lookup(setNumber string) (OwnedSet, bool) {
	for _, s := range m.Sets {
		if s.SetNumber == setNumber {
			return s, true
		}
	}
	return OwnedSet{}, false
}

// Add inserts or replaces an entry, keeping the manifest sorted by set
// number.
func (m *Manifest) Add(set OwnedSet) {
	for i, s := range m.Sets {
		if s.SetNumber == set.SetNumber {
			m.Sets[i] = set
			return
		}
	}
	m.Sets = append(m.Sets, set)
	sort.Slice(m.Sets, func(i, j int) bool {
		return m.Sets[i].SetNumber < m.Sets[j].SetNumber
	})
}

// Remove deletes an entry by set number, reporting whether it was present.
func (m *Manifest) Remove(setNumber string) bool {
	for i, s := range m.Sets {
		if s.SetNumber == setNumber {
			m.Sets = append(m.Sets[:i], m.Sets[i+1:]...)
			return true
		}
	}
	return false
}

// LoadManifest reads the manifest from disk. A missing file yields an empty
// manifest; an unparsable one yields a CorruptError.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Manifest{}, nil
		}
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &errors.CorruptError{Path: path, Err: err}
	}
	for _, s := range m.Sets {
		if strings.TrimSpace(s.SetNumber) == "" {
			return nil, &errors.CorruptError{Path: path, Err: errors.New("entry with empty set number")}
		}
	}
	return &m, nil
}

// SaveManifest writes the manifest atomically.
func SaveManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ReadOwnedSetsFile reads an owned-sets CSV from disk, labeling entries
// with the file's base name.
func ReadOwnedSetsFile(path string) ([]OwnedSet, []RowError, error) {
	label := filepath.Base(path)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &errors.SourceError{Source: label, Err: err}
	}
	defer func() { _ = file.Close() }()
	return ReadOwnedSets(file, label)
}

// ReadOwnedSets parses an owned-sets CSV import (columns Set number,
// Quantity, Includes spares). Rows failing validation are quarantined.
func ReadOwnedSets(r io.Reader, label string) ([]OwnedSet, []RowError, error) {
	var sets []OwnedSet
	rowErrs, err := readRows(r, []string{"set", "quantity", "spares"}, func(h header, row []string) error {
		quantity, err := h.getInt(row, "quantity")
		if err != nil {
			return err
		}
		if quantity < 1 {
			return errors.NewValidationError("quantity", quantity, "quantity must be at least 1")
		}
		spares, err := parseBool(h.get(row, "spares"))
		if err != nil {
			return err
		}
		setNumber := h.get(row, "set")
		if setNumber == "" {
			return errors.NewValidationError("set_number", setNumber, "set number cannot be empty")
		}
		sets = append(sets, OwnedSet{
			SetNumber:     setNumber,
			Quantity:      quantity,
			IncludeSpares: spares,
			Source:        label,
		})
		return nil
	})
	if err != nil {
		return nil, nil, &errors.SourceError{Source: label, Err: err}
	}
	return sets, rowErrs, nil
}
