package parts

import "sort"

// Status summarizes how well a single wanted item was satisfied.
type Status int

// Allocation statuses.
const (
	// StatusFulfilled means the full wanted quantity was allocated.
	StatusFulfilled Status = iota
	// StatusPartial means some, but not all, of the wanted quantity was allocated.
	StatusPartial
	// StatusMissing means nothing could be allocated.
	StatusMissing
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusFulfilled:
		return "fulfilled"
	case StatusPartial:
		return "partial"
	case StatusMissing:
		return "missing"
	}
	return "unknown"
}

// Take is one pickup instruction within an allocation: how many pieces to
// take from one location.
type Take struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// Allocation is the matching result for one wanted item: the ordered list of
// takes plus whatever quantity could not be fulfilled.
type Allocation struct {
	Key         PartKey `json:"key"`
	Wanted      int     `json:"wanted"`
	Takes       []Take  `json:"takes,omitempty"`
	Unfulfilled int     `json:"unfulfilled"`
}

// Taken returns the total quantity allocated across all takes.
func (a Allocation) Taken() int {
	total := 0
	for _, t := range a.Takes {
		total += t.Quantity
	}
	return total
}

// Status derives the fulfillment status of the allocation.
func (a Allocation) Status() Status {
	switch taken := a.Taken(); {
	case taken == 0:
		return StatusMissing
	case a.Unfulfilled == 0:
		return StatusFulfilled
	default:
		return StatusPartial
	}
}

// PlanItem is one part/quantity pair inside a location group.
type PlanItem struct {
	Key      PartKey `json:"key"`
	Quantity int     `json:"quantity"`
}

// LocationGroup is the per-location view of a pickup plan: everything to
// retrieve from one physical storage location.
type LocationGroup struct {
	Location string     `json:"location"`
	Items    []PlanItem `json:"items"`
}

// PickupPlan is the output of a matching run: one allocation per wanted
// item, in wanted-list order.
type PickupPlan struct {
	Allocations []Allocation `json:"allocations"`
}

// AllocatedAt returns the quantity allocated for the given part at the given
// location, or zero if the plan has no such take.
func (p *PickupPlan) AllocatedAt(key PartKey, location string) int {
	for _, a := range p.Allocations {
		if a.Key != key {
			continue
		}
		for _, t := range a.Takes {
			if t.Location == location {
				return t.Quantity
			}
		}
	}
	return 0
}

// Cells returns every (part, location) cell the plan allocates, in plan
// order. The found tracker uses this to seed its allocation limits.
func (p *PickupPlan) Cells() []Cell {
	var cells []Cell
	for _, a := range p.Allocations {
		for _, t := range a.Takes {
			cells = append(cells, Cell{Key: a.Key, Location: t.Location})
		}
	}
	return cells
}

// ByLocation regroups the plan for physical retrieval: locations sorted by
// name, each with its items sorted by part key.
func (p *PickupPlan) ByLocation() []LocationGroup {
	grouped := make(map[string][]PlanItem)
	for _, a := range p.Allocations {
		for _, t := range a.Takes {
			grouped[t.Location] = append(grouped[t.Location], PlanItem{Key: a.Key, Quantity: t.Quantity})
		}
	}

	groups := make([]LocationGroup, 0, len(grouped))
	for location, items := range grouped {
		sort.Slice(items, func(i, j int) bool {
			return items[i].Key.Less(items[j].Key)
		})
		groups = append(groups, LocationGroup{Location: location, Items: items})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Location < groups[j].Location
	})
	return groups
}

// TotalWanted sums the wanted quantities across the whole plan.
func (p *PickupPlan) TotalWanted() int {
	total := 0
	for _, a := range p.Allocations {
		total += a.Wanted
	}
	return total
}

// TotalUnfulfilled sums the quantities the plan could not allocate.
func (p *PickupPlan) TotalUnfulfilled() int {
	total := 0
	for _, a := range p.Allocations {
		total += a.Unfulfilled
	}
	return total
}
