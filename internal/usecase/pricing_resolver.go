package usecase

import (
	"sort"
	"strconv"

	"github.com/chemprice/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	freightApplies = "SI"
	freightWaived  = "NO"
)

// PricingConfig holds the business constants of the price formula
type PricingConfig struct {
	DefaultMargin      float64
	DefaultFreightCode string
	FreeFreightCode    string
	// DefaultFreight is charged per kg when a freight code is not in FreightRates
	DefaultFreight  float64
	HazardSurcharge float64
	// StdPackaging1Kg and StdPackaging5Kg apply when a rule names no known packaging
	StdPackaging1Kg  float64
	StdPackaging5Kg  float64
	ManualCostUplift float64
	PackagingCosts   map[string]float64
	FreightRates     map[string]float64
	// MasterPriceBackfill prices zero-cost rows from another row with the same base name
	MasterPriceBackfill bool
	// DetectHazardFromName also treats names matching the hazard vocabulary as hazardous
	DetectHazardFromName bool
}

// DefaultPricingConfig returns the stock pricing constants
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultMargin:      0.20,
		DefaultFreightCode: "F1",
		FreeFreightCode:    "F0",
		DefaultFreight:     0.08,
		HazardSurcharge:    0.03,
		StdPackaging1Kg:    0.15,
		StdPackaging5Kg:    0.40,
		ManualCostUplift:   0.05,
		PackagingCosts: map[string]float64{
			"BOLSA":    0.10,
			"GALONERA": 0.60,
			"BALDE":    1.20,
			"BIDON":    2.50,
			"CILINDRO": 12.00,
		},
		FreightRates: map[string]float64{
			"F0": 0.00,
			"F1": 0.08,
			"F2": 0.12,
			"F3": 0.18,
		},
		MasterPriceBackfill: true,
	}
}

// PricingResolver joins cost rows with rules and computes final prices
type PricingResolver struct {
	config    PricingConfig
	parser    *UnitParser
	packaging map[string]decimal.Decimal
	freight   map[string]decimal.Decimal
}

// NewPricingResolver creates a resolver; table labels are matched after NormalizeKey
func NewPricingResolver(config PricingConfig, parser *UnitParser) *PricingResolver {
	return &PricingResolver{
		config:    config,
		parser:    parser,
		packaging: decimalTable(config.PackagingCosts),
		freight:   decimalTable(config.FreightRates),
	}
}

// Resolve prices every cost row, dedupes and orders the result
func (r *PricingResolver) Resolve(costs CostTable, rules RuleBook, overrides domain.Overrides) []domain.ProductRecord {
	records := make([]domain.ProductRecord, 0, len(costs.Rows))
	for _, row := range costs.Rows {
		rec, ok := r.price(row, costs.MasterPrices, rules, overrides)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return sortProducts(dedupeProducts(records))
}

func (r *PricingResolver) price(row domain.CostRow, masters map[string]float64, rules RuleBook, overrides domain.Overrides) (domain.ProductRecord, bool) {
	cost := row.UnitCost
	if cost <= minPositiveCost {
		if !r.config.MasterPriceBackfill {
			return domain.ProductRecord{}, false
		}
		var ok bool
		if cost, ok = backfillFromMasterPrice(masters, row.Name); !ok {
			return domain.ProductRecord{}, false
		}
	}

	rule, ok := rules.Lookup(row.Name)
	if !ok {
		rule = r.defaultRule()
	}
	if m, ok := overrides.Margin(row.Name); ok {
		rule.Margin = m
	}

	info := r.parser.Parse(row.Name, row.Code)
	hazardous := rule.Hazardous || (r.config.DetectHazardFromName && info.Hazardous)

	margin := decimal.NewFromFloat(rule.Margin)
	operating := decimal.NewFromFloat(cost).Add(r.packagingPerUnit(rule.PackagingLabel, row.PackageKg))
	base := operating.Mul(decimal.NewFromInt(1).Add(margin))
	delivered := base.Add(r.freightFor(rule.FreightCode, hazardous))
	deliveredPrice := delivered.Round(2).InexactFloat64()

	status := freightApplies
	if rule.FreightCode == NormalizeKey(r.config.FreeFreightCode) {
		status = freightWaived
	}

	return domain.ProductRecord{
		Name:          row.Name,
		Category:      row.Category,
		Brand:         row.Brand,
		Code:          row.Code,
		UnitType:      row.UnitType,
		Margin:        margin.Mul(decimal.NewFromInt(100)).Round(1).StringFixed(1),
		BasePrice:     base.Round(2).InexactFloat64(),
		PriceArequipa: deliveredPrice,
		PriceTrujillo: deliveredPrice,
		PackageKg:     row.PackageKg,
		FreightStatus: status,
		Form:          info.Form,
		Hazardous:     hazardous,
	}, true
}

// backfillFromMasterPrice looks up the last positive cost recorded for the product's
// base name. Sizes of the same base product share it even when their suffixes differ
// only in formatting.
func backfillFromMasterPrice(masters map[string]float64, name string) (float64, bool) {
	cost, ok := masters[BaseName(name)]
	return cost, ok
}

func (r *PricingResolver) defaultRule() domain.RuleRecord {
	return domain.RuleRecord{
		Margin:      r.config.DefaultMargin,
		FreightCode: NormalizeKey(r.config.DefaultFreightCode),
	}
}

// packagingPerUnit spreads the package cost over its kilograms
func (r *PricingResolver) packagingPerUnit(label string, kg float64) decimal.Decimal {
	size := decimal.NewFromFloat(kg)
	if amount, ok := r.packaging[NormalizeKey(label)]; ok && label != "" && kg > 0 {
		return amount.Div(size)
	}

	switch kg {
	case 1:
		return decimal.NewFromFloat(r.config.StdPackaging1Kg)
	case 5:
		return decimal.NewFromFloat(r.config.StdPackaging5Kg).Div(decimal.NewFromInt(5))
	default:
		return decimal.Zero
	}
}

// freightFor returns the per-kg freight for code plus the hazard surcharge
func (r *PricingResolver) freightFor(code string, hazardous bool) decimal.Decimal {
	rate, ok := r.freight[NormalizeKey(code)]
	if !ok {
		rate = decimal.NewFromFloat(r.config.DefaultFreight)
	}
	if hazardous {
		rate = rate.Add(decimal.NewFromFloat(r.config.HazardSurcharge))
	}
	return rate
}

// dedupeProducts keeps, per (code, name, package size), the record with the highest
// base price. On equal prices the first one seen stays.
func dedupeProducts(records []domain.ProductRecord) []domain.ProductRecord {
	index := make(map[string]int, len(records))
	out := make([]domain.ProductRecord, 0, len(records))

	for _, rec := range records {
		key := rec.Code + "\x00" + rec.Name + "\x00" + strconv.FormatFloat(rec.PackageKg, 'f', -1, 64)
		if i, seen := index[key]; seen {
			if rec.BasePrice > out[i].BasePrice {
				out[i] = rec
			}
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// sortProducts orders by base name ascending, then package size descending.
// Records equal on both keep their relative order.
func sortProducts(records []domain.ProductRecord) []domain.ProductRecord {
	bases := make(map[string]string, len(records))
	for _, rec := range records {
		if _, ok := bases[rec.Name]; !ok {
			bases[rec.Name] = BaseName(rec.Name)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		bi, bj := bases[records[i].Name], bases[records[j].Name]
		if bi != bj {
			return bi < bj
		}
		return records[i].PackageKg > records[j].PackageKg
	})
	return records
}

func decimalTable(in map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for label, amount := range in {
		out[NormalizeKey(label)] = decimal.NewFromFloat(amount)
	}
	return out
}
