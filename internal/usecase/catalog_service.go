package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/chemprice/backend/internal/domain"
	"go.uber.org/zap"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	Pricing    PricingConfig
	Vocabulary Vocabulary
}

// CatalogService rebuilds the priced product catalog from the source spreadsheets
// and serves queries from the current snapshot
type CatalogService struct {
	sources   domain.SourceStore
	overrides domain.OverrideStore
	cache     domain.ProductCache
	logger    *zap.Logger

	ruleLoader *RuleLoader
	costLoader *CostLoader
	resolver   *PricingResolver

	// rebuildMu serializes rebuilds; readers never take it
	rebuildMu sync.Mutex
}

// NewCatalogService creates a catalog service with its pipeline stages
func NewCatalogService(
	sources domain.SourceStore,
	overrides domain.OverrideStore,
	cache domain.ProductCache,
	config CatalogServiceConfig,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := NewUnitParser(config.Vocabulary)

	return &CatalogService{
		sources:   sources,
		overrides: overrides,
		cache:     cache,
		logger:    logger.Named("catalog"),
		ruleLoader: NewRuleLoader(RuleLoaderConfig{
			DefaultMargin:      config.Pricing.DefaultMargin,
			DefaultFreightCode: NormalizeKey(config.Pricing.DefaultFreightCode),
		}),
		costLoader: NewCostLoader(CostLoaderConfig{
			ManualCostUplift: config.Pricing.ManualCostUplift,
		}, parser),
		resolver: NewPricingResolver(config.Pricing, parser),
	}
}

// Rebuild recomputes the whole catalog and publishes it as a new snapshot.
// Bad input never fails the rebuild: it degrades to defaults or an empty list.
func (s *CatalogService) Rebuild(ctx context.Context) *domain.Snapshot {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	snap := s.cache.Publish(s.buildSafely(ctx))
	s.logger.Info("catalog rebuilt",
		zap.Uint64("version", snap.Version),
		zap.Int("products", snap.Len()),
	)
	return snap
}

// buildSafely runs the pipeline and turns any panic into an empty catalog
func (s *CatalogService) buildSafely(ctx context.Context) (products []domain.ProductRecord) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("catalog pipeline failed", zap.Any("panic", r))
			products = nil
		}
	}()
	return s.build(ctx)
}

func (s *CatalogService) build(ctx context.Context) []domain.ProductRecord {
	overrides, err := s.overrides.Load(ctx)
	if err != nil {
		s.logger.Warn("manual overrides unavailable", zap.Error(err))
		overrides = domain.Overrides{}
	}

	rules := s.loadRules(ctx)

	table, err := s.sources.Read(ctx, domain.SourceCosts)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceNotFound) {
			failed := failedResult(CostTable{}, err)
			s.logResult("costs", failed.Status, failed.Err, 0)
		}
		return nil
	}

	costs := s.costLoader.Load(table, rules)
	s.logResult("costs", costs.Status, costs.Err, len(costs.Value.Rows))
	if !costs.OK() {
		return nil
	}

	return s.resolver.Resolve(costs.Value, rules, overrides)
}

func (s *CatalogService) loadRules(ctx context.Context) RuleBook {
	table, err := s.sources.Read(ctx, domain.SourceRules)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			return NewRuleBook()
		}
		failed := failedResult(NewRuleBook(), err)
		s.logResult("rules", failed.Status, failed.Err, 0)
		return failed.Value
	}

	rules := s.ruleLoader.Load(table)
	s.logResult("rules", rules.Status, rules.Err, rules.Value.Len())
	return rules.Value
}

func (s *CatalogService) logResult(source string, status LoadStatus, err error, n int) {
	fields := []zap.Field{
		zap.String("source", source),
		zap.Stringer("status", status),
		zap.Int("entries", n),
	}
	if err != nil {
		s.logger.Warn("source degraded to defaults", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("source loaded", fields...)
}

// Search returns the products whose name contains every whitespace-separated token
// of query, ignoring case and accents. An empty query returns the whole catalog.
// The returned slice is a copy; callers may modify it.
func (s *CatalogService) Search(ctx context.Context, query string) []domain.ProductRecord {
	snap := s.cache.Current()
	if snap == nil {
		return []domain.ProductRecord{}
	}

	tokens := strings.Fields(NormalizeKey(query))
	if len(tokens) == 0 {
		all := make([]domain.ProductRecord, len(snap.Products))
		copy(all, snap.Products)
		return all
	}

	matches := make([]domain.ProductRecord, 0)
	for _, p := range snap.Products {
		name := NormalizeKey(p.Name)
		if containsAll(name, tokens) {
			matches = append(matches, p)
		}
	}
	return matches
}

// Status returns the current snapshot
func (s *CatalogService) Status(ctx context.Context) *domain.Snapshot {
	return s.cache.Current()
}

// ReplaceSource stores a new cost or rules spreadsheet and rebuilds the catalog
func (s *CatalogService) ReplaceSource(ctx context.Context, kind domain.SourceKind, filename string, r io.Reader) (*domain.Snapshot, error) {
	path, err := s.sources.Save(ctx, kind, filename, r)
	if err != nil {
		return nil, fmt.Errorf("storing %s source: %w", kind, err)
	}
	s.logger.Info("source replaced", zap.String("kind", string(kind)), zap.String("path", path))
	return s.Rebuild(ctx), nil
}

// SetManualMargin stores a margin override, given as a percentage, for the exact
// product name and rebuilds the catalog
func (s *CatalogService) SetManualMargin(ctx context.Context, name string, percent float64) (*domain.Snapshot, error) {
	if strings.TrimSpace(name) == "" || math.IsNaN(percent) || math.IsInf(percent, 0) {
		return nil, domain.ErrInvalidRequest
	}

	if err := s.overrides.Set(ctx, strings.TrimSpace(name), domain.OverrideFieldMargin, percent/100); err != nil {
		return nil, fmt.Errorf("saving margin override: %w", err)
	}
	s.logger.Info("margin override saved", zap.String("product", name), zap.Float64("percent", percent))
	return s.Rebuild(ctx), nil
}

func containsAll(s string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
