package usecase

import "strings"

// ColumnPurpose names what a spreadsheet column holds
type ColumnPurpose string

const (
	ColumnName        ColumnPurpose = "name"
	ColumnCost        ColumnPurpose = "cost"
	ColumnCategory    ColumnPurpose = "category"
	ColumnBrand       ColumnPurpose = "brand"
	ColumnCode        ColumnPurpose = "code"
	ColumnUnitType    ColumnPurpose = "unit_type"
	ColumnMargin      ColumnPurpose = "margin"
	ColumnPackaging   ColumnPurpose = "packaging"
	ColumnFreightCode ColumnPurpose = "freight_code"
	ColumnHazardous   ColumnPurpose = "hazardous"
	ColumnManualCost  ColumnPurpose = "manual_cost"
)

// ColumnRule assigns a purpose to the first header the predicate accepts
type ColumnRule struct {
	Purpose ColumnPurpose
	Match   func(header string) bool
}

// ColumnResolver evaluates its rules in order against normalized headers.
// A purpose is settled by the first rule that hits; later rules for it are skipped.
type ColumnResolver struct {
	normalize func(string) string
	rules     []ColumnRule
}

// NewColumnResolver creates a resolver; normalize is applied to every header before matching
func NewColumnResolver(normalize func(string) string, rules ...ColumnRule) *ColumnResolver {
	return &ColumnResolver{normalize: normalize, rules: rules}
}

// Resolve maps purposes to column indexes for the given header row
func (r *ColumnResolver) Resolve(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = r.normalize(h)
	}

	cols := ColumnMap{}
	for _, rule := range r.rules {
		if _, done := cols[rule.Purpose]; done {
			continue
		}
		for i, h := range normalized {
			if h != "" && rule.Match(h) {
				cols[rule.Purpose] = i
				break
			}
		}
	}
	return cols
}

// ColumnMap holds the resolved column index per purpose
type ColumnMap map[ColumnPurpose]int

// Has reports whether the purpose was resolved
func (m ColumnMap) Has(p ColumnPurpose) bool {
	_, ok := m[p]
	return ok
}

// Cell returns the trimmed cell for purpose p; ok is false when the column is unknown,
// the row is short, or the cell is blank
func (m ColumnMap) Cell(row []string, p ColumnPurpose) (string, bool) {
	i, ok := m[p]
	if !ok || i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	if v == "" || strings.EqualFold(v, "nan") {
		return "", false
	}
	return v, true
}

// headerIn matches headers equal to one of the given names
func headerIn(names ...string) func(string) bool {
	return func(h string) bool {
		for _, n := range names {
			if h == n {
				return true
			}
		}
		return false
	}
}

// headerContains matches headers containing any of the given fragments
func headerContains(fragments ...string) func(string) bool {
	return func(h string) bool {
		for _, f := range fragments {
			if strings.Contains(h, f) {
				return true
			}
		}
		return false
	}
}

// headerContainsExcept matches headers containing want but none of the excluded fragments
func headerContainsExcept(want string, excluded ...string) func(string) bool {
	return func(h string) bool {
		if !strings.Contains(h, want) {
			return false
		}
		for _, e := range excluded {
			if strings.Contains(h, e) {
				return false
			}
		}
		return true
	}
}
