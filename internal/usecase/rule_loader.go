package usecase

import (
	"fmt"

	"github.com/chemprice/backend/internal/domain"
)

// affirmativeTokens are the cell values read as "yes" in boolean rule columns
var affirmativeTokens = map[string]bool{
	"SI":   true,
	"YES":  true,
	"TRUE": true,
	"1":    true,
}

// rulesColumns identifies rule table columns by exact normalized header
var rulesColumns = []ColumnRule{
	{ColumnName, headerIn("PRODUCTO")},
	{ColumnMargin, headerIn("MARGEN", "MARGEN %", "% MARGEN", "MARGIN")},
	{ColumnPackaging, headerIn("TIPO ENVASE", "ENVASE", "TIPO DE ENVASE", "PACKAGING")},
	{ColumnFreightCode, headerIn("COD. FLETE", "COD FLETE", "CODIGO FLETE")},
	{ColumnHazardous, headerIn("PELIGROSO", "HAZARDOUS", "MATERIAL PELIGROSO")},
	{ColumnManualCost, headerIn("COSTO MANUAL", "COSTO", "MANUAL COST")},
}

// RuleBook indexes rule records by normalized product name and by base name
type RuleBook struct {
	rules map[string]domain.RuleRecord
}

// NewRuleBook creates an empty rule book
func NewRuleBook() RuleBook {
	return RuleBook{rules: make(map[string]domain.RuleRecord)}
}

// Lookup finds the rule for a product: exact name first, then base name
func (b RuleBook) Lookup(name string) (domain.RuleRecord, bool) {
	if rule, ok := b.rules[NormalizeKey(name)]; ok {
		return rule, true
	}
	rule, ok := b.rules[BaseName(name)]
	return rule, ok
}

// Len returns the number of indexed keys (exact and base)
func (b RuleBook) Len() int {
	return len(b.rules)
}

// add stores rule under the exact key and, if still free, under the base key
func (b RuleBook) add(name string, rule domain.RuleRecord) {
	exact := NormalizeKey(name)
	b.rules[exact] = rule

	base := BaseName(exact)
	if base == "" || base == exact {
		return
	}
	if _, taken := b.rules[base]; !taken {
		b.rules[base] = rule
	}
}

// RuleLoaderConfig holds the defaults applied to missing rule cells
type RuleLoaderConfig struct {
	DefaultMargin      float64
	DefaultFreightCode string
}

// RuleLoader parses the rules spreadsheet into a RuleBook
type RuleLoader struct {
	config   RuleLoaderConfig
	resolver *ColumnResolver
}

// NewRuleLoader creates a rule loader
func NewRuleLoader(config RuleLoaderConfig) *RuleLoader {
	return &RuleLoader{
		config:   config,
		resolver: NewColumnResolver(NormalizeKey, rulesColumns...),
	}
}

// Load reads table (header in row 0). A missing PRODUCTO column yields an empty
// book together with ErrMissingColumn.
func (l *RuleLoader) Load(table domain.Table) Result[RuleBook] {
	book := NewRuleBook()
	if len(table) == 0 {
		return emptyResult(book, domain.ErrEmptyTable)
	}

	cols := l.resolver.Resolve(table[0])
	if !cols.Has(ColumnName) {
		return emptyResult(book, fmt.Errorf("%w: PRODUCTO", domain.ErrMissingColumn))
	}

	for _, row := range table[1:] {
		name, ok := cols.Cell(row, ColumnName)
		if !ok {
			continue
		}
		book.add(name, l.parseRule(cols, row))
	}

	if book.Len() == 0 {
		return emptyResult(book, nil)
	}
	return loaded(book)
}

func (l *RuleLoader) parseRule(cols ColumnMap, row []string) domain.RuleRecord {
	rule := domain.RuleRecord{
		Margin:      l.config.DefaultMargin,
		FreightCode: l.config.DefaultFreightCode,
	}

	if cell, ok := cols.Cell(row, ColumnMargin); ok {
		if v, ok := parseNumber(cell); ok {
			rule.Margin = marginFraction(v)
		}
	}

	if cell, ok := cols.Cell(row, ColumnPackaging); ok {
		rule.PackagingLabel = NormalizeKey(cell)
	}

	if cell, ok := cols.Cell(row, ColumnFreightCode); ok {
		rule.FreightCode = NormalizeKey(cell)
	}

	if cell, ok := cols.Cell(row, ColumnHazardous); ok {
		rule.Hazardous = affirmativeTokens[NormalizeKey(cell)]
	}

	if cell, ok := cols.Cell(row, ColumnManualCost); ok {
		if v, ok := parseNumber(cell); ok && v > 0 {
			rule.ManualCost = v
		}
	}

	return rule
}

// marginFraction reads values above 1 as percentages
func marginFraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}
