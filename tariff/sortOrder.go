package tariff

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// SortOrderStep renumbers one slab. Steps are applied in slice order.
type SortOrderStep struct {
	SlabID int `json:"slabId"`
	From   int `json:"from"`
	To     int `json:"to"`
}

// AutoAssignSortOrder ranks a new lower limit among the slabs by ascending lower limit.
// It returns the 1-indexed position of the first slab starting above lower, or count+1.
func AutoAssignSortOrder(lower decimal.Decimal, slabs []Slab) int {
	sorted := make([]Slab, len(slabs))
	copy(sorted, slabs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LowerLimit.LessThan(sorted[j].LowerLimit)
	})
	for i, s := range sorted {
		if s.LowerLimit.GreaterThan(lower) {
			return i + 1
		}
	}
	return len(sorted) + 1
}

// ShiftSortOrders moves every slab at or after target one place down to make room.
// Steps run in ascending order of current sort order.
func ShiftSortOrders(slabs []Slab, target int, excludeID int) []SortOrderStep {
	var steps []SortOrderStep
	for _, s := range bySortOrder(slabs, false) {
		if s.ID == excludeID || s.SortOrder < target {
			continue
		}
		steps = append(steps, SortOrderStep{SlabID: s.ID, From: s.SortOrder, To: s.SortOrder + 1})
	}
	return steps
}

// MoveSortOrder renumbers the slabs between oldOrder and newOrder when one slab moves.
// Moving up increments [newOrder, oldOrder) in descending order; moving down
// decrements (oldOrder, newOrder] in ascending order.
func MoveSortOrder(slabs []Slab, oldOrder int, newOrder int, excludeID int) []SortOrderStep {
	var steps []SortOrderStep
	switch {
	case newOrder < oldOrder:
		for _, s := range bySortOrder(slabs, true) {
			if s.ID != excludeID && s.SortOrder >= newOrder && s.SortOrder < oldOrder {
				steps = append(steps, SortOrderStep{SlabID: s.ID, From: s.SortOrder, To: s.SortOrder + 1})
			}
		}
	case newOrder > oldOrder:
		for _, s := range bySortOrder(slabs, false) {
			if s.ID != excludeID && s.SortOrder > oldOrder && s.SortOrder <= newOrder {
				steps = append(steps, SortOrderStep{SlabID: s.ID, From: s.SortOrder, To: s.SortOrder - 1})
			}
		}
	}
	return steps
}

func bySortOrder(slabs []Slab, descending bool) []Slab {
	sorted := make([]Slab, len(slabs))
	copy(sorted, slabs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].SortOrder > sorted[j].SortOrder
		}
		return sorted[i].SortOrder < sorted[j].SortOrder
	})
	return sorted
}

// Apply returns a copy of slabs with the steps applied.
func Apply(slabs []Slab, steps []SortOrderStep) []Slab {
	out := make([]Slab, len(slabs))
	copy(out, slabs)
	index := make(map[int]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}
	for _, step := range steps {
		if i, ok := index[step.SlabID]; ok {
			out[i].SortOrder = step.To
		}
	}
	return out
}

// Plan is the outcome of planning a slab write: the sort order the slab gets and
// the renumbering of its siblings, to be applied together.
type Plan struct {
	SortOrder int             `json:"sortOrder"`
	Steps     []SortOrderStep `json:"steps"`
}

var ErrSlabNotInSet = errors.New("slab is not part of the tariff configuration")

// PlanCreate resolves the sort order of a new slab and validates it.
// Without an explicit sort order the slab is ranked among the active slabs and
// later slabs are shifted; the candidate is then validated against the shifted set.
func PlanCreate(c Candidate, existing []Slab, opts Options) (Plan, FieldErrors) {
	if c.SortOrder != nil {
		return Plan{SortOrder: *c.SortOrder}, Validate(c, existing, opts)
	}

	order := AutoAssignSortOrder(c.LowerLimit, activeSlabs(existing))
	steps := ShiftSortOrders(existing, order, 0)
	c.SortOrder = &order
	return Plan{SortOrder: order, Steps: steps}, Validate(c, Apply(existing, steps), opts)
}

// PlanUpdate validates an edit of an existing slab. A changed sort order moves the
// slabs in between; a nil sort order keeps the current one.
func PlanUpdate(c Candidate, existing []Slab, opts Options) (Plan, FieldErrors, error) {
	var current *Slab
	for i := range existing {
		if existing[i].ID == c.ID {
			current = &existing[i]
			break
		}
	}
	if current == nil {
		return Plan{}, nil, ErrSlabNotInSet
	}

	if c.SortOrder == nil {
		order := current.SortOrder
		c.SortOrder = &order
	}
	plan := Plan{SortOrder: *c.SortOrder}
	projected := existing
	if *c.SortOrder >= 0 && *c.SortOrder != current.SortOrder {
		plan.Steps = MoveSortOrder(existing, current.SortOrder, *c.SortOrder, c.ID)
		projected = Apply(existing, plan.Steps)
	}
	return plan, Validate(c, projected, opts), nil
}
