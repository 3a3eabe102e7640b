package scoring

// Values holds one string per scoring attribute.
type Values struct {
	LandHomeRate                        string `json:"landHomeRate"`
	LandRate                            string `json:"landRate"`
	LandTaxRate                         string `json:"landTaxRate"`
	BuildingTaxRateUpto120sqm           string `json:"buildingTaxRateUpto120sqm"`
	BuildingTaxRateUpto200sqm           string `json:"buildingTaxRateUpto200sqm"`
	BuildingTaxRateAbove200sqm          string `json:"buildingTaxRateAbove200sqm"`
	HighIncomeGroupConnectionPercentage string `json:"highIncomeGroupConnectionPercentage"`
}

func (v *Values) field(a Attribute) *string {
	switch a {
	case LandHomeRate:
		return &v.LandHomeRate
	case LandRate:
		return &v.LandRate
	case LandTaxRate:
		return &v.LandTaxRate
	case BuildingTaxRateUpto120sqm:
		return &v.BuildingTaxRateUpto120sqm
	case BuildingTaxRateUpto200sqm:
		return &v.BuildingTaxRateUpto200sqm
	case BuildingTaxRateAbove200sqm:
		return &v.BuildingTaxRateAbove200sqm
	case HighIncomeGroupConnectionPercentage:
		return &v.HighIncomeGroupConnectionPercentage
	}
	panic("scoring: unknown attribute")
}

func (v Values) Get(a Attribute) string {
	return *v.field(a)
}

func (v *Values) Set(a Attribute, value string) {
	*v.field(a) = value
}

// Record is one area's scoring row inside a ruleset batch.
// Percentages and GeoMean are derived by Normalize and blank on parser output.
type Record struct {
	AreaId      int    `json:"areaId"`
	AreaName    string `json:"areaName,omitempty"`
	Raw         Values `json:"raw"`
	Percentages Values `json:"percentages"`
	GeoMean     string `json:"geoMean"`
}
