package models

import (
	"encoding/json"
	"errors"

	"bitbucket.org/mmdatafocus/tariff_backend/tariff"
)

type RulesetStatus string

const (
	RulesetStatusDraft    RulesetStatus = "Draft"
	RulesetStatusPending  RulesetStatus = "Pending"
	RulesetStatusApproved RulesetStatus = "Approved"
)

func (t RulesetStatus) IsValid() bool {
	switch t {
	case RulesetStatusDraft, RulesetStatusPending, RulesetStatusApproved:
		return true
	}
	return false
}

// convert input to enum type
func (t *RulesetStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("ruleset status must be string")
	}
	status := RulesetStatus(str)
	if !status.IsValid() {
		return errors.New("invalid ruleset status")
	}
	*t = status
	return nil
}

type BillingMode = tariff.BillingMode

const (
	BillingModeTiered    = tariff.BillingModeTiered
	BillingModeThreshold = tariff.BillingModeThreshold
)

// Reference types carried by history rows and tariff events.
type TariffReferenceType string

const (
	TariffReferenceTypeRuleset       TariffReferenceType = "Ruleset"
	TariffReferenceTypeTariffConfig  TariffReferenceType = "TariffConfig"
	TariffReferenceTypeThresholdSlab TariffReferenceType = "ThresholdSlab"
)

type TariffEventAction string

const (
	TariffEventActionCreate  TariffEventAction = "C"
	TariffEventActionUpdate  TariffEventAction = "U"
	TariffEventActionDelete  TariffEventAction = "D"
	TariffEventActionApprove TariffEventAction = "A"
	TariffEventActionRecalc  TariffEventAction = "R"
	TariffEventActionReorder TariffEventAction = "O"
)
