package usecase

import (
	"testing"

	"github.com/chemprice/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(mutate func(*PricingConfig)) *PricingResolver {
	cfg := DefaultPricingConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewPricingResolver(cfg, NewUnitParser(DefaultVocabulary()))
}

func costRow(name string, cost, kg float64) domain.CostRow {
	return domain.CostRow{
		Name:      name,
		Category:  DefaultCategory,
		Brand:     DefaultBrand,
		Code:      DefaultCode,
		UnitType:  DefaultUnitType,
		UnitCost:  cost,
		PackageKg: kg,
	}
}

func rulesOf(entries map[string]domain.RuleRecord) RuleBook {
	book := NewRuleBook()
	for name, rule := range entries {
		book.add(name, rule)
	}
	return book
}

func resolveOne(t *testing.T, r *PricingResolver, row domain.CostRow, rules RuleBook, ov domain.Overrides) domain.ProductRecord {
	t.Helper()
	out := r.Resolve(CostTable{Rows: []domain.CostRow{row}}, rules, ov)
	require.Len(t, out, 1)
	return out[0]
}

func TestPricingResolver_DefaultsOnly(t *testing.T) {
	r := newTestResolver(nil)

	got := resolveOne(t, r, costRow("SOSA CAUSTICA X 25KG", 2.00, 25), NewRuleBook(), nil)

	assert.Equal(t, "20.0", got.Margin)
	assert.Equal(t, 2.40, got.BasePrice)
	assert.Equal(t, 2.48, got.PriceArequipa)
	assert.Equal(t, 2.48, got.PriceTrujillo)
	assert.Equal(t, "SI", got.FreightStatus)
	assert.Equal(t, domain.FormPowder, got.Form)
	assert.False(t, got.Hazardous)
	assert.Equal(t, 25.0, got.PackageKg)
}

func TestPricingResolver_Formula(t *testing.T) {
	tests := []struct {
		name          string
		row           domain.CostRow
		rule          *domain.RuleRecord
		wantMargin    string
		wantBase      float64
		wantDelivered float64
		wantStatus    string
	}{
		{
			name:          "named packaging spread over kg",
			row:           costRow("BORAX X 5KG", 10, 5),
			rule:          &domain.RuleRecord{Margin: 0.25, PackagingLabel: "BIDON", FreightCode: "F1"},
			wantMargin:    "25.0",
			wantBase:      13.13,
			wantDelivered: 13.21,
			wantStatus:    "SI",
		},
		{
			name:          "standard 1 kg packaging",
			row:           costRow("BORAX X 1KG", 1, 1),
			wantMargin:    "20.0",
			wantBase:      1.38,
			wantDelivered: 1.46,
			wantStatus:    "SI",
		},
		{
			name:          "standard 5 kg packaging",
			row:           costRow("BORAX X 5KG", 2, 5),
			wantMargin:    "20.0",
			wantBase:      2.50,
			wantDelivered: 2.58,
			wantStatus:    "SI",
		},
		{
			name:          "unknown packaging label falls back to standard",
			row:           costRow("BORAX X 1KG", 1, 1),
			rule:          &domain.RuleRecord{Margin: 0.20, PackagingLabel: "CAJA", FreightCode: "F1"},
			wantMargin:    "20.0",
			wantBase:      1.38,
			wantDelivered: 1.46,
			wantStatus:    "SI",
		},
		{
			name:          "free freight code",
			row:           costRow("BORAX X 25KG", 10, 25),
			rule:          &domain.RuleRecord{Margin: 0.20, FreightCode: "F0"},
			wantMargin:    "20.0",
			wantBase:      12.00,
			wantDelivered: 12.00,
			wantStatus:    "NO",
		},
		{
			name:          "unknown freight code uses default rate",
			row:           costRow("BORAX X 25KG", 10, 25),
			rule:          &domain.RuleRecord{Margin: 0.20, FreightCode: "F9"},
			wantMargin:    "20.0",
			wantBase:      12.00,
			wantDelivered: 12.08,
			wantStatus:    "SI",
		},
		{
			name:          "hazardous on free freight still pays surcharge",
			row:           costRow("BORAX X 25KG", 10, 25),
			rule:          &domain.RuleRecord{Margin: 0.20, FreightCode: "F0", Hazardous: true},
			wantMargin:    "20.0",
			wantBase:      12.00,
			wantDelivered: 12.03,
			wantStatus:    "NO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := NewRuleBook()
			if tt.rule != nil {
				rules.add(tt.row.Name, *tt.rule)
			}

			got := resolveOne(t, newTestResolver(nil), tt.row, rules, nil)
			assert.Equal(t, tt.wantMargin, got.Margin)
			assert.Equal(t, tt.wantBase, got.BasePrice)
			assert.Equal(t, tt.wantDelivered, got.PriceArequipa)
			assert.Equal(t, got.PriceArequipa, got.PriceTrujillo)
			assert.Equal(t, tt.wantStatus, got.FreightStatus)
		})
	}
}

func TestPricingResolver_HazardSurcharge(t *testing.T) {
	r := newTestResolver(nil)
	row := costRow("BORAX X 25KG", 10, 25)

	safe := resolveOne(t, r, row, rulesOf(map[string]domain.RuleRecord{
		row.Name: {Margin: 0.20, FreightCode: "F2"},
	}), nil)
	hazardous := resolveOne(t, r, row, rulesOf(map[string]domain.RuleRecord{
		row.Name: {Margin: 0.20, FreightCode: "F2", Hazardous: true},
	}), nil)

	assert.Equal(t, 12.12, safe.PriceArequipa)
	assert.Equal(t, 12.15, hazardous.PriceArequipa)
	assert.InDelta(t, 0.03, hazardous.PriceArequipa-safe.PriceArequipa, 1e-9)
	assert.True(t, hazardous.Hazardous)
}

func TestPricingResolver_HazardFromName(t *testing.T) {
	row := costRow("ACIDO SULFURICO X 1LT", 10, 1)

	ruleOnly := resolveOne(t, newTestResolver(nil), row, NewRuleBook(), nil)
	assert.False(t, ruleOnly.Hazardous, "name alone does not make a product hazardous")
	assert.Equal(t, 12.18, ruleOnly.BasePrice)
	assert.Equal(t, 12.26, ruleOnly.PriceArequipa)

	byName := resolveOne(t, newTestResolver(func(c *PricingConfig) { c.DetectHazardFromName = true }), row, NewRuleBook(), nil)
	assert.True(t, byName.Hazardous)
	assert.Equal(t, 12.29, byName.PriceArequipa)
	assert.Equal(t, domain.FormLiquid, byName.Form)
}

func TestPricingResolver_OverrideBeatsRule(t *testing.T) {
	r := newTestResolver(nil)
	row := costRow("Acido X 1KG", 1, 1)
	rules := rulesOf(map[string]domain.RuleRecord{
		"Acido X 1KG": {Margin: 0.20, FreightCode: "F1"},
	})

	got := resolveOne(t, r, row, rules, domain.Overrides{
		"Acido X 1KG": {domain.OverrideFieldMargin: 0.25},
	})
	assert.Equal(t, "25.0", got.Margin)

	got = resolveOne(t, r, row, rules, domain.Overrides{
		"ACIDO X 1KG": {domain.OverrideFieldMargin: 0.25},
	})
	assert.Equal(t, "20.0", got.Margin, "override keys are exact names")

	got = resolveOne(t, r, row, rules, domain.Overrides{
		"Acido X 1KG": {"otro": 0.9},
	})
	assert.Equal(t, "20.0", got.Margin, "only the margin field applies")
}

func TestPricingResolver_Dedupe(t *testing.T) {
	r := newTestResolver(nil)
	rules := rulesOf(map[string]domain.RuleRecord{
		"BORAX X 25KG": {Margin: 0, FreightCode: "F1"},
	})

	for name, costs := range map[string][]float64{
		"lower first":  {10, 12},
		"higher first": {12, 10},
	} {
		t.Run(name, func(t *testing.T) {
			table := CostTable{}
			for _, c := range costs {
				row := costRow("BORAX X 25KG", c, 25)
				row.Code = "BX-25"
				table.Rows = append(table.Rows, row)
			}

			out := r.Resolve(table, rules, nil)
			require.Len(t, out, 1)
			assert.Equal(t, 12.0, out[0].BasePrice)
		})
	}

	t.Run("different codes are different products", func(t *testing.T) {
		a := costRow("BORAX X 25KG", 10, 25)
		b := costRow("BORAX X 25KG", 12, 25)
		b.Code = "BX-25"

		out := r.Resolve(CostTable{Rows: []domain.CostRow{a, b}}, rules, nil)
		assert.Len(t, out, 2)
	})
}

func TestPricingResolver_Ordering(t *testing.T) {
	r := newTestResolver(nil)
	table := CostTable{}
	for i, name := range []string{"ACIDO X 1KG", "ACIDO X 5KG", "BORAX X 25KG", "ACIDO NITRICO X 1LT"} {
		row := costRow(name, 1, NewUnitParser(DefaultVocabulary()).Parse(name, "").SizeKg)
		row.Code = string(rune('A' + i))
		table.Rows = append(table.Rows, row)
	}

	out := r.Resolve(table, NewRuleBook(), nil)

	names := make([]string, len(out))
	for i, p := range out {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"ACIDO X 5KG", "ACIDO X 1KG", "ACIDO NITRICO X 1LT", "BORAX X 25KG"}, names)
}

func TestPricingResolver_MasterPriceBackfill(t *testing.T) {
	table := CostTable{
		Rows: []domain.CostRow{
			costRow("ACIDO X 5KG", 0, 5),
			costRow("ACIDO X 1KG", 3, 1),
			costRow("XYZ", 0, 1),
		},
		MasterPrices: map[string]float64{"ACIDO": 3},
	}

	t.Run("enabled", func(t *testing.T) {
		out := newTestResolver(nil).Resolve(table, NewRuleBook(), nil)
		require.Len(t, out, 2, "zero cost without a master price is dropped")
		assert.Equal(t, "ACIDO X 5KG", out[0].Name)
		assert.Equal(t, 3.70, out[0].BasePrice)
	})

	t.Run("disabled", func(t *testing.T) {
		out := newTestResolver(func(c *PricingConfig) { c.MasterPriceBackfill = false }).Resolve(table, NewRuleBook(), nil)
		require.Len(t, out, 1)
		assert.Equal(t, "ACIDO X 1KG", out[0].Name)
	})
}

func TestPricingResolver_EmptyInput(t *testing.T) {
	out := newTestResolver(nil).Resolve(CostTable{}, NewRuleBook(), nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestPricingResolver_ConfiguredTablesAreCaseInsensitive(t *testing.T) {
	r := newTestResolver(func(c *PricingConfig) {
		c.PackagingCosts = map[string]float64{"bidón": 2.50}
		c.FreightRates = map[string]float64{"f1": 0.10}
	})
	row := costRow("BORAX X 5KG", 10, 5)
	rules := rulesOf(map[string]domain.RuleRecord{
		row.Name: {Margin: 0, PackagingLabel: "BIDON", FreightCode: "F1"},
	})

	got := resolveOne(t, r, row, rules, nil)
	assert.Equal(t, 10.50, got.BasePrice)
	assert.Equal(t, 10.60, got.PriceArequipa)
}
