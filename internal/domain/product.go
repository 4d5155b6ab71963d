package domain

// ProductForm classifies a product as liquid or powder
type ProductForm string

const (
	FormLiquid ProductForm = "LIQUIDO"
	FormPowder ProductForm = "POLVO"
)

// ProductRecord is a priced product as held in the catalog snapshot
type ProductRecord struct {
	Name          string      `json:"nombre"`
	Category      string      `json:"categoria"`
	Brand         string      `json:"marca"`
	Code          string      `json:"codigo"`
	UnitType      string      `json:"unidad_tipo"`
	Margin        string      `json:"margen"`      // percentage, one decimal
	BasePrice     float64     `json:"precio_lima"` // before freight
	PriceArequipa float64     `json:"precio_aqp"`
	PriceTrujillo float64     `json:"precio_tru"`
	PackageKg     float64     `json:"presentacion"`
	FreightStatus string      `json:"flete_status"` // "SI" or "NO"
	Form          ProductForm `json:"tipo"`
	Hazardous     bool        `json:"peligroso"`
}

// RuleRecord holds the business rule for one product
type RuleRecord struct {
	Margin         float64 // fraction, 0.20 = 20%
	PackagingLabel string
	FreightCode    string
	Hazardous      bool
	ManualCost     float64 // 0 means unset
}

// CostRow is one ingested row of the cost table
type CostRow struct {
	Name      string
	Category  string
	Brand     string
	Code      string
	UnitType  string
	UnitCost  float64 // USD
	PackageKg float64
}

// UnitInfo is what the name parser extracts from a product name
type UnitInfo struct {
	SizeKg    float64
	Form      ProductForm
	Hazardous bool
}

// Field names used in the manual override store
const (
	OverrideFieldMargin = "margen"
)

// Overrides maps an exact product name to field overrides
type Overrides map[string]map[string]float64

// Margin returns the overridden margin for the exact product name, if any
func (o Overrides) Margin(name string) (float64, bool) {
	fields, ok := o[name]
	if !ok {
		return 0, false
	}
	m, ok := fields[OverrideFieldMargin]
	return m, ok
}
