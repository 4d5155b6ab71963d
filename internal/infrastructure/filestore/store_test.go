package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chemprice/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewStore(Config{Dir: dir, CostsName: "data_precios", RulesName: "data_reglas"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, dir
}

func TestStore_SaveAndRead(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	path, err := s.Save(ctx, domain.SourceCosts, "lista de precios.CSV", strings.NewReader("Producto,Costo\nBORAX,1\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data_precios.csv"), path)

	got, err := s.Read(ctx, domain.SourceCosts)
	require.NoError(t, err)
	assert.Equal(t, domain.Table{{"Producto", "Costo"}, {"BORAX", "1"}}, got)

	_, err = s.Read(ctx, domain.SourceRules)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestStore_SaveReplacesOtherExtensions(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	stale := filepath.Join(dir, "data_reglas.xlsx")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := s.Save(ctx, domain.SourceRules, "reglas.csv", strings.NewReader("PRODUCTO\nBORAX\n"))
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale workbook should be removed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"data_reglas.csv"}, names, "no temp files left behind")
}

func TestStore_SaveRejects(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, domain.SourceCosts, "precios.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = s.Save(ctx, domain.SourceCosts, "precios", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = s.Save(ctx, domain.SourceKind("stock"), "stock.csv", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_LocateNewestWins(t *testing.T) {
	s, dir := newTestStore(t)

	older := filepath.Join(dir, "data_precios.xlsx")
	newer := filepath.Join(dir, "data_precios.csv")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o644))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	got, err := s.Locate(domain.SourceCosts)
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	require.NoError(t, os.Chtimes(older, base.Add(2*time.Minute), base.Add(2*time.Minute)))
	got, err = s.Locate(domain.SourceCosts)
	require.NoError(t, err)
	assert.Equal(t, older, got)
}

func TestNewStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	_, err := NewStore(Config{Dir: dir, CostsName: "c", RulesName: "r"}, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
