// Package aggregate merges heterogeneous part sources (manual collection
// records and cached set inventories) into a single queryable index the
// matcher allocates against.
package aggregate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bricktools/brickpick/internal/cache"
	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/logging"
	"github.com/bricktools/brickpick/pkg/parts"
)

// SetSelection names one owned set to draw inventory from, with the owned
// multiplier and the spares gate from the owned-sets manifest.
type SetSelection struct {
	SetNumber     string
	Multiplier    int
	IncludeSpares bool
}

// Source is one selected part source. Exactly one of Records (manual) or
// Set (set) is meaningful, per Kind.
type Source struct {
	Kind    parts.SourceKind
	Name    string
	Records []parts.PartRecord
	Set     SetSelection

	// failure marks a source that could not be read at ingestion time; it
	// is reported as a warning during Build.
	failure error
}

// Manual creates a source from already-ingested collection records.
func Manual(name string, records []parts.PartRecord) Source {
	return Source{Kind: parts.SourceManual, Name: name, Records: records}
}

// Set creates a source that draws from a cached set inventory.
func Set(sel SetSelection) Source {
	return Source{Kind: parts.SourceSet, Name: sel.SetNumber, Set: sel}
}

// Failed creates a manual source that is known to be unreadable. It
// surfaces as a warning during the build, mirroring how a failed set fetch
// is reported.
func Failed(name string, err error) Source {
	return Source{Kind: parts.SourceManual, Name: name, Records: nil, Set: SetSelection{}, failure: err}
}

// Entry is one location's availability for a part key.
type Entry struct {
	Location  string          `json:"location"`
	Available int             `json:"available"`
	Source    parts.SourceRef `json:"source"`
}

// Warning records a source that was skipped during a build. Warnings never
// abort aggregation; the index is built from whatever sources succeeded.
type Warning struct {
	Source string
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("skipped source %s: %v", w.Source, w.Err)
}

// Index maps part keys to ordered location entries. Entries for one key
// keep first-occurrence order; quantities landing on an existing location
// are summed in place. An Index is rebuilt fresh per matching run and never
// persisted.
type Index struct {
	entries map[parts.PartKey][]Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[parts.PartKey][]Entry)}
}

// Entries returns the location entries for a key, or nil when the index has
// none. Callers must not modify the returned slice.
func (ix *Index) Entries(key parts.PartKey) []Entry {
	return ix.entries[key]
}

// Available returns the total quantity across all locations for a key.
func (ix *Index) Available(key parts.PartKey) int {
	total := 0
	for _, e := range ix.entries[key] {
		total += e.Available
	}
	return total
}

// Len returns the number of distinct part keys in the index.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// add merges one record into the index, summing quantities that land on an
// existing location for the same key.
func (ix *Index) add(record parts.PartRecord) {
	entries := ix.entries[record.Key]
	for i := range entries {
		if entries[i].Location == record.Location {
			entries[i].Available += record.Quantity
			return
		}
	}
	ix.entries[record.Key] = append(entries, Entry{
		Location:  record.Location,
		Available: record.Quantity,
		Source:    record.Source,
	})
}

// SetLocation derives the pseudo-location label for a set source. The label
// depends only on the set number, so the same set always maps to the same
// location string across runs.
func SetLocation(setNumber string) string {
	return "Set " + setNumber
}

// Builder aggregates sources into an Index, pulling set inventories through
// the shared cache.
type Builder struct {
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewBuilder creates a builder backed by the given cache. The cache may be
// nil if no set sources will be used.
func NewBuilder(c *cache.Cache, logger *zerolog.Logger) *Builder {
	if logger == nil {
		logger = &logging.Nop
	}
	return &Builder{
		cache:  c,
		logger: logger.With().Str("component", "aggregate").Logger(),
	}
}

// Build aggregates the given sources into an index. A source that fails is
// skipped with a recorded warning; the build itself never fails. Totals per
// (part, location) are independent of source order.
func (b *Builder) Build(ctx context.Context, sources []Source) (*Index, []Warning) {
	index := NewIndex()
	var warnings []Warning

	for _, src := range sources {
		switch src.Kind {
		case parts.SourceSet:
			if warn := b.addSet(ctx, index, src.Set); warn != nil {
				warnings = append(warnings, *warn)
			}
		case parts.SourceManual:
			if src.failure != nil {
				warnings = append(warnings, Warning{
					Source: src.Name,
					Err:    &errors.SourceError{Source: src.Name, Err: src.failure},
				})
				continue
			}
			for _, record := range src.Records {
				index.add(record)
			}
		default:
			warnings = append(warnings, Warning{
				Source: src.Name,
				Err:    errors.NewValidationError("kind", src.Kind, "unknown source kind"),
			})
		}
	}

	for _, warn := range warnings {
		b.logger.Warn().Err(warn.Err).Str("source", warn.Source).Msg("source skipped during aggregation")
	}

	return index, warnings
}

// addSet pulls one set through the cache and merges its scaled lines under
// the set's pseudo-location.
func (b *Builder) addSet(ctx context.Context, index *Index, sel SetSelection) *Warning {
	if b.cache == nil {
		return &Warning{
			Source: sel.SetNumber,
			Err:    &errors.FetchError{SetNumber: sel.SetNumber, Message: "no inventory cache configured"},
		}
	}

	lines, err := b.cache.Lines(ctx, sel.SetNumber, sel.Multiplier, sel.IncludeSpares)
	if err != nil {
		return &Warning{Source: sel.SetNumber, Err: err}
	}

	location := SetLocation(sel.SetNumber)
	source := parts.SourceRef{Kind: parts.SourceSet, ID: sel.SetNumber}
	for _, line := range lines {
		index.add(parts.PartRecord{
			Key:      line.Key,
			Quantity: line.Quantity,
			Location: location,
			Source:   source,
		})
	}
	return nil
}
