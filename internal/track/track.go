// Package track records per-location found progress against a pickup plan
// and persists it crash-safely across sessions.
package track

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/logging"
	"github.com/bricktools/brickpick/pkg/parts"
)

// CellState describes the progress of one (part, location) cell.
type CellState int

// Cell states.
const (
	// Unfound means nothing has been retrieved yet.
	Unfound CellState = iota
	// Partial means some, but not all, of the allocated quantity was found.
	Partial
	// Complete means the full allocated quantity was found.
	Complete
)

// String returns the string representation of the state.
func (s CellState) String() string {
	switch s {
	case Unfound:
		return "unfound"
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Tracker holds live found counts for one pickup plan. Counts are clamped to
// the plan's allocations: a cell can never record more found than allocated,
// and never less than zero. Safe for concurrent use.
type Tracker struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	allocated map[parts.Cell]int
	found     map[parts.Cell]int
}

// New creates an empty tracker for the given plan.
func New(plan *parts.PickupPlan, logger *zerolog.Logger) *Tracker {
	if logger == nil {
		logger = &logging.Nop
	}
	allocated := make(map[parts.Cell]int)
	if plan != nil {
		for _, a := range plan.Allocations {
			for _, take := range a.Takes {
				allocated[parts.Cell{Key: a.Key, Location: take.Location}] += take.Quantity
			}
		}
	}
	return &Tracker{
		logger:    logger.With().Str("component", "track").Logger(),
		allocated: allocated,
		found:     make(map[parts.Cell]int),
	}
}

// Restore rebuilds a tracker from a persisted snapshot, validated against
// the current plan: cells the plan no longer allocates are dropped, and
// counts exceeding the new allocation are clamped down.
func Restore(state FoundState, plan *parts.PickupPlan, logger *zerolog.Logger) *Tracker {
	t := New(plan, logger)
	for _, rec := range state {
		cell := parts.Cell{
			Key:      parts.PartKey{PartNumber: rec.PartNumber, ColorID: rec.ColorID},
			Location: rec.Location,
		}
		limit, ok := t.allocated[cell]
		if !ok {
			t.logger.Debug().Str("cell", cell.String()).Msg("dropping found entry no longer in plan")
			continue
		}
		if count := clamp(rec.Found, limit); count > 0 {
			t.found[cell] = count
		}
	}
	return t
}

// Mark adds delta (negative for corrections) to a cell's found count,
// clamping the result to [0, allocated]. It returns the new count.
func (t *Tracker) Mark(cell parts.Cell, delta int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	limit, ok := t.allocated[cell]
	if !ok {
		return 0, errors.ErrNotFound
	}
	count := clamp(t.found[cell]+delta, limit)
	if count == 0 {
		delete(t.found, cell)
	} else {
		t.found[cell] = count
	}
	return count, nil
}

// Reset sets a cell's found count back to zero.
func (t *Tracker) Reset(cell parts.Cell) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.allocated[cell]; !ok {
		return errors.ErrNotFound
	}
	delete(t.found, cell)
	return nil
}

// Found returns the current found count for a cell.
func (t *Tracker) Found(cell parts.Cell) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.found[cell]
}

// Allocated returns the planned quantity for a cell, or zero when the plan
// has no such cell.
func (t *Tracker) Allocated(cell parts.Cell) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allocated[cell]
}

// State derives the progress state of a cell.
func (t *Tracker) State(cell parts.Cell) CellState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	found := t.found[cell]
	switch {
	case found == 0:
		return Unfound
	case found < t.allocated[cell]:
		return Partial
	default:
		return Complete
	}
}

// Snapshot returns an immutable copy of the current found state, sorted by
// part, color, then location so persisted output is deterministic.
func (t *Tracker) Snapshot() FoundState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state := make(FoundState, 0, len(t.found))
	for cell, found := range t.found {
		state = append(state, FoundRecord{
			PartNumber: cell.Key.PartNumber,
			ColorID:    cell.Key.ColorID,
			Location:   cell.Location,
			Found:      found,
		})
	}
	sort.Slice(state, func(i, j int) bool {
		if state[i].PartNumber != state[j].PartNumber {
			return state[i].PartNumber < state[j].PartNumber
		}
		if state[i].ColorID != state[j].ColorID {
			return state[i].ColorID < state[j].ColorID
		}
		return state[i].Location < state[j].Location
	})
	return state
}

// LocationProgress summarizes progress for one location.
type LocationProgress struct {
	Location  string
	Allocated int
	Found     int
}

// Progress returns per-location totals, sorted by location name.
func (t *Tracker) Progress() []LocationProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byLocation := make(map[string]*LocationProgress)
	for cell, qty := range t.allocated {
		p, ok := byLocation[cell.Location]
		if !ok {
			p = &LocationProgress{Location: cell.Location}
			byLocation[cell.Location] = p
		}
		p.Allocated += qty
		p.Found += t.found[cell]
	}

	progress := make([]LocationProgress, 0, len(byLocation))
	for _, p := range byLocation {
		progress = append(progress, *p)
	}
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Location < progress[j].Location
	})
	return progress
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
