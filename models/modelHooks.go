package models

import (
	"fmt"

	"gorm.io/gorm"
)

// area

func (a *Area) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, a.ID, a, "Created Area "+a.Name); err != nil {
		return err
	}
	if err := a.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

func (a *Area) BeforeUpdate(tx *gorm.DB) (err error) {
	if err := SaveHistoryUpdate(tx, a.ID, a, "Updated Area "+a.Name); err != nil {
		return err
	}
	if err := a.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

func (a *Area) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, a.ID, a, "Deleted Area "+a.Name); err != nil {
		return err
	}
	if err := a.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

// ruleset

func (r *Ruleset) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Created Ruleset %s v%d", r.Name, r.Version)
	if r.ParentId != nil {
		description = fmt.Sprintf("Cloned Ruleset %s v%d from #%d", r.Name, r.Version, *r.ParentId)
	}
	return SaveHistoryCreate(tx, r.ID, r, description)
}

func (r *Ruleset) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, r.ID, r, fmt.Sprintf("Updated Ruleset %s v%d", r.Name, r.Version))
}

func (r *Ruleset) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, r.ID, r, fmt.Sprintf("Deleted Ruleset %s v%d", r.Name, r.Version))
}

// tariff config

func (t *TariffConfig) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, t.ID, t, "Created TariffConfig "+t.Name); err != nil {
		return err
	}
	if err := t.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

func (t *TariffConfig) BeforeUpdate(tx *gorm.DB) (err error) {
	if err := SaveHistoryUpdate(tx, t.ID, t, "Updated TariffConfig "+t.Name); err != nil {
		return err
	}
	if err := t.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

func (t *TariffConfig) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, t.ID, t, "Deleted TariffConfig "+t.Name); err != nil {
		return err
	}
	if err := t.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

// threshold slab

func (s *ThresholdSlab) AfterFind(tx *gorm.DB) (err error) {
	s.Range = s.Slab().Range()
	return nil
}

func (s *ThresholdSlab) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, s.ID, s, "Created ThresholdSlab "+s.Slab().Range()); err != nil {
		return err
	}
	if err := s.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

func (s *ThresholdSlab) BeforeUpdate(tx *gorm.DB) (err error) {
	if err := SaveHistoryUpdate(tx, s.ID, s, "Updated ThresholdSlab "+s.Slab().Range()); err != nil {
		return err
	}
	if err := s.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}

func (s *ThresholdSlab) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, s.ID, s, "Deleted ThresholdSlab "+s.Slab().Range()); err != nil {
		return err
	}
	if err := s.RemoveAllRedis(tx.Statement.Context); err != nil {
		return err
	}

	return nil
}
