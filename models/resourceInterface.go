package models

type Resource interface {
	GetUtilityId() string
}

func (a Area) GetUtilityId() string {
	return a.UtilityId
}

func (h History) GetUtilityId() string {
	return h.UtilityId
}

func (r Ruleset) GetUtilityId() string {
	return r.UtilityId
}

func (p ScoringParam) GetUtilityId() string {
	return p.UtilityId
}

func (t TariffConfig) GetUtilityId() string {
	return t.UtilityId
}

func (s ThresholdSlab) GetUtilityId() string {
	return s.UtilityId
}
