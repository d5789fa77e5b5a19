// Package brickpick reconciles a LEGO wanted-parts list against everything a
// collector already has: manually cataloged loose parts and the inventories
// of owned sets fetched from the Rebrickable API. The result is a pickup
// plan that says, for every wanted part, which storage location to pull it
// from and how many pieces remain missing.
package brickpick

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/bricktools/brickpick/internal/aggregate"
	"github.com/bricktools/brickpick/internal/cache"
	"github.com/bricktools/brickpick/internal/match"
	"github.com/bricktools/brickpick/internal/rebrickable"
	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

// Brickpick plans part pickups from cached set inventories and manual
// collection sources.
type Brickpick interface {
	// Inventory returns the inventory of a set, fetching and caching it
	// on first access.
	Inventory(ctx context.Context, setNumber string) (*parts.SetInventory, error)

	// Refresh discards any cached inventory for a set and fetches it again.
	Refresh(ctx context.Context, setNumber string) (*parts.SetInventory, error)

	// Invalidate removes a set's inventory from the cache.
	Invalidate(setNumber string) error

	// CachedSets lists the set numbers currently held in the cache.
	CachedSets() ([]string, error)

	// Plan reconciles a wanted list against the given sources and returns
	// a pickup plan. Sources that fail to load are reported as warnings;
	// the plan is still produced from the sources that loaded.
	Plan(ctx context.Context, wanted []parts.WantedItem, sources []Source) (*parts.PickupPlan, []Warning, error)
}

// SetSelection names an owned set contributing parts: how many copies are
// owned and whether spare parts count as available.
type SetSelection struct {
	SetNumber     string
	Multiplier    int
	IncludeSpares bool
}

// Source is one contribution of available parts, either a manually
// cataloged collection or an owned set.
type Source struct {
	name    string
	records []parts.PartRecord
	set     *SetSelection
}

// ManualSource builds a source from manually cataloged part records.
func ManualSource(name string, records []parts.PartRecord) Source {
	return Source{name: name, records: records}
}

// SetSource builds a source from an owned set's cached inventory.
func SetSource(sel SetSelection) Source {
	return Source{name: sel.SetNumber, set: &sel}
}

// Warning reports a source that could not contribute to a plan.
type Warning struct {
	Source string
	Err    error
}

// brickpick is the internal implementation of the Brickpick interface.
type brickpick struct {
	config  *config
	cache   *cache.Cache
	builder *aggregate.Builder
	logger  zerolog.Logger
}

// New creates a new Brickpick instance with the given options.
func New(opts ...Option) (Brickpick, error) {
	bp := &brickpick{
		config: defaultConfig(),
	}
	if err := bp.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}
	bp.logger = bp.config.logger

	fetcher := bp.config.fetcher
	if fetcher == nil && bp.config.apiKey != "" {
		clientOpts := []rebrickable.Option{
			rebrickable.WithTimeout(bp.config.httpTimeout),
		}
		if bp.config.apiBaseURL != "" {
			clientOpts = append(clientOpts, rebrickable.WithBaseURL(bp.config.apiBaseURL))
		}
		fetcher = rebrickable.New(bp.config.apiKey, clientOpts...)
	}

	bp.cache = cache.New(filepath.Join(bp.config.cacheDir, "set_inventories"), fetcher, &bp.logger)
	bp.builder = aggregate.NewBuilder(bp.cache, &bp.logger)

	return bp, nil
}

// Inventory returns the inventory of a set, fetching and caching it on
// first access.
func (b *brickpick) Inventory(ctx context.Context, setNumber string) (*parts.SetInventory, error) {
	return b.cache.Get(ctx, setNumber)
}

// Refresh discards any cached inventory for a set and fetches it again.
func (b *brickpick) Refresh(ctx context.Context, setNumber string) (*parts.SetInventory, error) {
	if err := b.cache.Invalidate(setNumber); err != nil {
		return nil, err
	}
	return b.cache.Get(ctx, setNumber)
}

// Invalidate removes a set's inventory from the cache.
func (b *brickpick) Invalidate(setNumber string) error {
	return b.cache.Invalidate(setNumber)
}

// CachedSets lists the set numbers currently held in the cache.
func (b *brickpick) CachedSets() ([]string, error) {
	return b.cache.List()
}

// Plan reconciles a wanted list against the given sources.
func (b *brickpick) Plan(ctx context.Context, wanted []parts.WantedItem, sources []Source) (*parts.PickupPlan, []Warning, error) {
	for _, item := range wanted {
		if err := item.Validate(); err != nil {
			return nil, nil, err
		}
	}
	wanted = coalesceWanted(wanted)

	aggSources := make([]aggregate.Source, 0, len(sources))
	for _, src := range sources {
		if src.set != nil {
			aggSources = append(aggSources, aggregate.Set(aggregate.SetSelection{
				SetNumber:     src.set.SetNumber,
				Multiplier:    src.set.Multiplier,
				IncludeSpares: src.set.IncludeSpares,
			}))
			continue
		}
		if src.name == "" {
			return nil, nil, errors.NewValidationError("source", src, "source has no name")
		}
		aggSources = append(aggSources, aggregate.Manual(src.name, src.records))
	}

	index, aggWarnings := b.builder.Build(ctx, aggSources)

	warnings := make([]Warning, 0, len(aggWarnings))
	for _, w := range aggWarnings {
		warnings = append(warnings, Warning{Source: w.Source, Err: w.Err})
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Source < warnings[j].Source })

	plan := match.Match(wanted, index)
	return plan, warnings, nil
}

// coalesceWanted merges duplicate part keys into one item each, summing
// quantities and keeping first-occurrence order. The matcher allocates each
// item against the full index independently, so duplicates left unmerged
// would draw the same inventory twice.
func coalesceWanted(wanted []parts.WantedItem) []parts.WantedItem {
	merged := make([]parts.WantedItem, 0, len(wanted))
	indexOf := make(map[parts.PartKey]int, len(wanted))
	for _, item := range wanted {
		if i, ok := indexOf[item.Key]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		indexOf[item.Key] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
