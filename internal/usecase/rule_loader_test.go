package usecase

import (
	"testing"

	"github.com/chemprice/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuleLoader() *RuleLoader {
	return NewRuleLoader(RuleLoaderConfig{DefaultMargin: 0.20, DefaultFreightCode: "F1"})
}

func TestRuleLoader_Load(t *testing.T) {
	table := domain.Table{
		{"Producto", "Margen", "Tipo Envase", "Cód. Flete", "Peligroso", "Costo Manual"},
		{"Acido Sulfurico X 1LT", "25", "bidon", "f2", "Sí", ""},
		{"Sosa Caustica", "0.3", "", "", "no", "abc"},
		{"Soda X 5KG", "x", "", "", "", "-4"},
		{"", "10", "", "", "", ""},
		{"Glicerina", "1", "", "", "1", "10.5"},
	}

	res := newTestRuleLoader().Load(table)
	require.True(t, res.OK())
	require.NoError(t, res.Err)

	book := res.Value
	assert.Equal(t, 6, book.Len(), "exact and base keys")

	tests := []struct {
		lookup string
		want   domain.RuleRecord
	}{
		{"ACIDO SULFURICO X 1LT", domain.RuleRecord{Margin: 0.25, PackagingLabel: "BIDON", FreightCode: "F2", Hazardous: true}},
		{"acido sulfurico x 5kg", domain.RuleRecord{Margin: 0.25, PackagingLabel: "BIDON", FreightCode: "F2", Hazardous: true}},
		{"Sosa Caustica", domain.RuleRecord{Margin: 0.3, FreightCode: "F1"}},
		{"SODA X 5KG", domain.RuleRecord{Margin: 0.20, FreightCode: "F1"}},
		{"Glicerina X 25KG", domain.RuleRecord{Margin: 1, FreightCode: "F1", Hazardous: true, ManualCost: 10.5}},
	}

	for _, tt := range tests {
		t.Run(tt.lookup, func(t *testing.T) {
			got, ok := book.Lookup(tt.lookup)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := book.Lookup("BORAX")
	assert.False(t, ok)
}

func TestRuleLoader_HeaderSynonyms(t *testing.T) {
	table := domain.Table{
		{"PRODUCTO", "% MARGEN", "ENVASE", "COD FLETE", "MATERIAL PELIGROSO", "COSTO"},
		{"BORAX", "15", "balde", "F3", "yes", "4"},
	}

	res := newTestRuleLoader().Load(table)
	require.True(t, res.OK())

	got, ok := res.Value.Lookup("borax")
	require.True(t, ok)
	assert.Equal(t, domain.RuleRecord{
		Margin:         0.15,
		PackagingLabel: "BALDE",
		FreightCode:    "F3",
		Hazardous:      true,
		ManualCost:     4,
	}, got)
}

func TestRuleLoader_ExactKeyBeatsBaseKey(t *testing.T) {
	orders := map[string]domain.Table{
		"sized row first": {
			{"PRODUCTO", "MARGEN"},
			{"ACIDO X 5KG", "10"},
			{"ACIDO", "30"},
		},
		"plain row first": {
			{"PRODUCTO", "MARGEN"},
			{"ACIDO", "30"},
			{"ACIDO X 5KG", "10"},
		},
	}

	for name, table := range orders {
		t.Run(name, func(t *testing.T) {
			book := newTestRuleLoader().Load(table).Value

			rule, ok := book.Lookup("ACIDO X 1KG")
			require.True(t, ok)
			assert.InDelta(t, 0.30, rule.Margin, 1e-9)

			rule, ok = book.Lookup("ACIDO X 5KG")
			require.True(t, ok)
			assert.InDelta(t, 0.10, rule.Margin, 1e-9)
		})
	}
}

func TestRuleLoader_Degraded(t *testing.T) {
	tests := []struct {
		name    string
		table   domain.Table
		wantErr error
	}{
		{"empty table", domain.Table{}, domain.ErrEmptyTable},
		{"missing product column", domain.Table{{"Nombre", "Margen"}, {"ACIDO", "10"}}, domain.ErrMissingColumn},
		{"header only", domain.Table{{"PRODUCTO", "MARGEN"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestRuleLoader().Load(tt.table)
			assert.Equal(t, StatusEmpty, res.Status)
			assert.Equal(t, 0, res.Value.Len())
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
			} else {
				assert.NoError(t, res.Err)
			}

			_, ok := res.Value.Lookup("ACIDO")
			assert.False(t, ok, "empty book must still be usable")
		})
	}
}

func TestMarginFraction(t *testing.T) {
	assert.InDelta(t, 0.25, marginFraction(25), 1e-9)
	assert.InDelta(t, 0.25, marginFraction(0.25), 1e-9)
	assert.InDelta(t, 1.0, marginFraction(1), 1e-9)
	assert.InDelta(t, 0.015, marginFraction(1.5), 1e-9)
}
