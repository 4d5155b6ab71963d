package usecase

import (
	"fmt"
	"strings"

	"github.com/chemprice/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// minPositiveCost is the threshold below which a cost counts as unset
const minPositiveCost = 0.0001

// Defaults for optional cost table columns
const (
	DefaultCategory = "GENERAL"
	DefaultBrand    = "GENERICO"
	DefaultCode     = "S/C"
	DefaultUnitType = "KG"
)

var (
	headerNameTokens = []string{"producto", "name"}
	headerCostTokens = []string{"c/u", "cost", "precio"}
)

// costColumns identifies cost table columns by lowercased header
var costColumns = []ColumnRule{
	{ColumnName, headerIn("producto", "nombre", "name")},
	{ColumnName, headerContainsExcept("producto", "categor", "cod")},
	{ColumnCost, headerContains("c/u", "usd", "$", "cost", "unit")},
	{ColumnCategory, headerContains("categor")},
	{ColumnBrand, headerContains("marca")},
	{ColumnCode, headerContains("codigo", "código")},
	{ColumnUnitType, headerContains("unidad")},
}

// CostTable is the ingested cost spreadsheet
type CostTable struct {
	Rows []domain.CostRow
	// MasterPrices holds the last positive cost seen per base name
	MasterPrices map[string]float64
}

// CostLoaderConfig configures cost ingestion
type CostLoaderConfig struct {
	// ManualCostUplift is applied to manual costs from the rules table, 0.05 = +5%
	ManualCostUplift float64
}

// CostLoader parses supplier cost spreadsheets
type CostLoader struct {
	config   CostLoaderConfig
	parser   *UnitParser
	resolver *ColumnResolver
}

// NewCostLoader creates a cost loader
func NewCostLoader(config CostLoaderConfig, parser *UnitParser) *CostLoader {
	return &CostLoader{
		config:   config,
		parser:   parser,
		resolver: NewColumnResolver(NormalizeHeader, costColumns...),
	}
}

// DetectHeaderRow returns the index of the first row that looks like a header:
// it mentions a product name and a cost. Defaults to 0.
func DetectHeaderRow(table domain.Table) int {
	for i, row := range table {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, strings.ToLower(c))
			}
		}
		joined := strings.Join(cells, " ")
		if containsAny(joined, headerNameTokens) && containsAny(joined, headerCostTokens) {
			return i
		}
	}
	return 0
}

// Load ingests table using rules for manual cost overrides
func (l *CostLoader) Load(table domain.Table, rules RuleBook) Result[CostTable] {
	out := CostTable{MasterPrices: make(map[string]float64)}
	if len(table) == 0 {
		return emptyResult(out, domain.ErrEmptyTable)
	}

	headerIdx := DetectHeaderRow(table)
	cols := l.resolver.Resolve(table[headerIdx])
	if !cols.Has(ColumnName) {
		return emptyResult(out, fmt.Errorf("%w: product name", domain.ErrMissingColumn))
	}
	if !cols.Has(ColumnCost) {
		return emptyResult(out, fmt.Errorf("%w: unit cost", domain.ErrMissingColumn))
	}

	for _, row := range table[headerIdx+1:] {
		name, ok := cols.Cell(row, ColumnName)
		if !ok {
			continue
		}

		code := cellOr(cols, row, ColumnCode, DefaultCode)
		cost := l.unitCost(name, cols, row, rules)

		out.Rows = append(out.Rows, domain.CostRow{
			Name:      name,
			Category:  strings.ToUpper(cellOr(cols, row, ColumnCategory, DefaultCategory)),
			Brand:     strings.ToUpper(cellOr(cols, row, ColumnBrand, DefaultBrand)),
			Code:      code,
			UnitType:  strings.ToUpper(cellOr(cols, row, ColumnUnitType, DefaultUnitType)),
			UnitCost:  cost,
			PackageKg: l.parser.Parse(name, code).SizeKg,
		})

		recordMasterPrice(out.MasterPrices, name, cost)
	}

	if len(out.Rows) == 0 {
		return emptyResult(out, nil)
	}
	return loaded(out)
}

// unitCost prefers a positive manual cost from the rules (with uplift) over the sheet value
func (l *CostLoader) unitCost(name string, cols ColumnMap, row []string, rules RuleBook) float64 {
	if rule, ok := rules.Lookup(name); ok && rule.ManualCost > 0 {
		uplift := decimal.NewFromInt(1).Add(decimal.NewFromFloat(l.config.ManualCostUplift))
		return decimal.NewFromFloat(rule.ManualCost).Mul(uplift).InexactFloat64()
	}

	cell, _ := cols.Cell(row, ColumnCost)
	v, ok := parseNumber(cell)
	if !ok {
		return 0
	}
	return v
}

// recordMasterPrice remembers the latest positive cost for the row's base name
func recordMasterPrice(prices map[string]float64, name string, cost float64) {
	if cost > minPositiveCost {
		prices[BaseName(name)] = cost
	}
}

func cellOr(cols ColumnMap, row []string, p ColumnPurpose, def string) string {
	if v, ok := cols.Cell(row, p); ok {
		return v
	}
	return def
}
