package models

import (
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/utils"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// interface for dataloader array result, grouped by the owning record
type RelatedData interface {
	GetReferenceId() int
}

func (a Area) GetId() int {
	return a.ID
}

// placeholder for an area that was deleted after it was referenced
func (a Area) GetDefault(id int) Data {
	return Area{
		ID:        id,
		Name:      "",
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// key
func (s ThresholdSlab) GetReferenceId() int {
	return s.TariffConfigId
}

func (p ScoringParam) GetReferenceId() int {
	return p.RulesetId
}
