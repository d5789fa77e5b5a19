// Package match allocates a wanted-parts list against an inventory index,
// producing a pickup plan. Matching is a pure function of its inputs: no
// randomness, no external calls, identical inputs always produce an
// identical plan.
package match

import (
	"sort"

	"github.com/bricktools/brickpick/internal/aggregate"
	"github.com/bricktools/brickpick/pkg/parts"
)

// Match allocates each wanted item greedily from the locations holding the
// largest quantities first, so common cases visit the fewest locations.
// Ties are broken by ascending location name for determinism. Allocations
// appear in wanted-list order.
func Match(wanted []parts.WantedItem, index *aggregate.Index) *parts.PickupPlan {
	plan := &parts.PickupPlan{Allocations: make([]parts.Allocation, 0, len(wanted))}
	for _, item := range wanted {
		plan.Allocations = append(plan.Allocations, allocate(item, index))
	}
	return plan
}

func allocate(item parts.WantedItem, index *aggregate.Index) parts.Allocation {
	alloc := parts.Allocation{
		Key:         item.Key,
		Wanted:      item.Quantity,
		Unfulfilled: item.Quantity,
	}

	entries := index.Entries(item.Key)
	if len(entries) == 0 {
		return alloc
	}

	// Largest available first; ties by location name.
	sorted := make([]aggregate.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Available != sorted[j].Available {
			return sorted[i].Available > sorted[j].Available
		}
		return sorted[i].Location < sorted[j].Location
	})

	remaining := item.Quantity
	for _, entry := range sorted {
		if remaining == 0 {
			break
		}
		take := min(remaining, entry.Available)
		if take == 0 {
			continue
		}
		alloc.Takes = append(alloc.Takes, parts.Take{Location: entry.Location, Quantity: take})
		remaining -= take
	}
	alloc.Unfulfilled = remaining
	return alloc
}
