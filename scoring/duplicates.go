package scoring

import (
	"fmt"
	"strings"
)

type DuplicateArea struct {
	AreaId   int    `json:"areaId"`
	AreaName string `json:"areaName"`
	Count    int    `json:"count"`
}

func (d DuplicateArea) displayName() string {
	if d.AreaName != "" {
		return d.AreaName
	}
	return fmt.Sprintf("area #%d", d.AreaId)
}

// FindDuplicateAreas lists areas referenced by more than one record, in first-seen order.
func FindDuplicateAreas(records []Record) []DuplicateArea {
	counts := make(map[int]int, len(records))
	names := make(map[int]string, len(records))
	var order []int
	for _, r := range records {
		if counts[r.AreaId] == 0 {
			order = append(order, r.AreaId)
		}
		counts[r.AreaId]++
		if names[r.AreaId] == "" {
			names[r.AreaId] = r.AreaName
		}
	}

	var dups []DuplicateArea
	for _, id := range order {
		if counts[id] > 1 {
			dups = append(dups, DuplicateArea{AreaId: id, AreaName: names[id], Count: counts[id]})
		}
	}
	return dups
}

type DuplicateAreaError struct {
	Duplicates []DuplicateArea
}

func (e *DuplicateAreaError) Error() string {
	parts := make([]string, len(e.Duplicates))
	for i, d := range e.Duplicates {
		parts[i] = fmt.Sprintf("%s (%d rows)", d.displayName(), d.Count)
	}
	return "duplicate area in scoring parameters: " + strings.Join(parts, ", ")
}

// CheckDuplicateAreas returns a *DuplicateAreaError naming every repeated area.
func CheckDuplicateAreas(records []Record) error {
	if dups := FindDuplicateAreas(records); len(dups) > 0 {
		return &DuplicateAreaError{Duplicates: dups}
	}
	return nil
}
