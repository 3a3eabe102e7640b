package tariff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	FieldLowerLimit = "lowerLimit"
	FieldUpperLimit = "upperLimit"
	FieldRate       = "rate"
	FieldSortOrder  = "sortOrder"
	FieldIsActive   = "isActive"
)

// FieldErrors collects every violation keyed by input field.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field string, message string) {
	e[field] = append(e[field], message)
}

func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], ", "))
	}
	return strings.Join(parts, "; ")
}

// Candidate is a slab being created (ID 0) or edited.
// A nil SortOrder means none was given.
type Candidate struct {
	ID         int
	LowerLimit decimal.Decimal
	UpperLimit *decimal.Decimal
	Rate       decimal.Decimal
	SortOrder  *int
	IsActive   bool
}

func (c Candidate) Slab() Slab {
	s := Slab{
		ID:         c.ID,
		LowerLimit: c.LowerLimit,
		UpperLimit: c.UpperLimit,
		Rate:       c.Rate,
		IsActive:   c.IsActive,
	}
	if c.SortOrder != nil {
		s.SortOrder = *c.SortOrder
	}
	return s
}

type Options struct {
	// IncludeInactive compares against inactive slabs too.
	IncludeInactive bool
}

// Validate checks a candidate against the other slabs of its configuration.
// Only active slabs are compared, whatever the state of the candidate.
// All violations are returned together; an empty map means the candidate is valid.
func Validate(c Candidate, existing []Slab, opts Options) FieldErrors {
	errs := FieldErrors{}

	validRange := true
	if c.LowerLimit.IsNegative() {
		errs.Add(FieldLowerLimit, "Lower limit must be 0 or greater")
		validRange = false
	}
	if c.UpperLimit != nil && c.UpperLimit.IsNegative() {
		errs.Add(FieldUpperLimit, "Upper limit must be 0 or greater")
		validRange = false
	} else if !IsUnlimited(c.UpperLimit) && !c.UpperLimit.GreaterThan(c.LowerLimit) {
		errs.Add(FieldUpperLimit, "Upper limit must be greater than lower limit")
		validRange = false
	}
	if !c.Rate.IsPositive() {
		errs.Add(FieldRate, "Rate must be greater than 0")
	}
	if c.SortOrder != nil && *c.SortOrder < 0 {
		errs.Add(FieldSortOrder, "Sort order must be 0 or greater")
	}

	for _, other := range existing {
		if other.ID == c.ID && c.ID != 0 {
			continue
		}
		if !other.IsActive && !opts.IncludeInactive {
			continue
		}
		if c.SortOrder != nil && *c.SortOrder >= 0 && other.SortOrder == *c.SortOrder {
			errs.Add(FieldSortOrder, fmt.Sprintf("Sort order %d is already used by slab %s", other.SortOrder, other.Range()))
		}
		if validRange && rangesOverlap(c.LowerLimit, c.UpperLimit, other.LowerLimit, other.UpperLimit) {
			msg := fmt.Sprintf("Range overlaps with existing slab %s", other.Range())
			errs.Add(FieldLowerLimit, msg)
			errs.Add(FieldUpperLimit, msg)
		}
	}
	return errs
}

// ValidateActivation re-runs the overlap and sort order checks for a slab being switched on.
func ValidateActivation(slab Slab, existing []Slab, opts Options) FieldErrors {
	sortOrder := slab.SortOrder
	errs := Validate(Candidate{
		ID:         slab.ID,
		LowerLimit: slab.LowerLimit,
		UpperLimit: slab.UpperLimit,
		Rate:       slab.Rate,
		SortOrder:  &sortOrder,
		IsActive:   true,
	}, existing, opts)
	if errs.HasErrors() {
		errs.Add(FieldIsActive, "Slab cannot be activated while it conflicts with active slabs")
	}
	return errs
}
