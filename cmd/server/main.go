package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chemprice/backend/config"
	httpDelivery "github.com/chemprice/backend/internal/delivery/http"
	"github.com/chemprice/backend/internal/infrastructure/cache"
	"github.com/chemprice/backend/internal/infrastructure/filestore"
	"github.com/chemprice/backend/internal/infrastructure/logger"
	"github.com/chemprice/backend/internal/infrastructure/overrides"
	"github.com/chemprice/backend/internal/usecase"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "chemprice",
		Usage:   "Resale price catalog for chemical products",
		Version: version,
		Commands: []*cli.Command{
			serveCommand(),
			priceCommand(),
			setMarginCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Build the catalog and serve it over HTTP",
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			catalog, err := newCatalogService(cfg, log)
			if err != nil {
				return err
			}
			catalog.Rebuild(c.Context)

			handler := httpDelivery.NewHandler(catalog, log)
			router := httpDelivery.SetupRouter(cfg, handler, log)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.Server.Environment))
				errCh <- srv.ListenAndServe()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case sig := <-quit:
				log.Info("shutting down", zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:  "price",
		Usage: "Run the pricing pipeline once and print the products as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Only print products whose name contains every word of the query",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			catalog, err := newCatalogService(cfg, log)
			if err != nil {
				return err
			}
			catalog.Rebuild(c.Context)

			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.Search(c.Context, c.String("query")))
		},
	}
}

func setMarginCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-margin",
		Usage: "Store a manual margin override for one product",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Exact product name as it appears in the cost sheet",
				Required: true,
			},
			&cli.Float64Flag{
				Name:     "margin",
				Aliases:  []string{"m"},
				Usage:    "Margin as a percentage, e.g. 25 for 25%",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			catalog, err := newCatalogService(cfg, log)
			if err != nil {
				return err
			}

			snap, err := catalog.SetManualMargin(c.Context, c.String("name"), c.Float64("margin"))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Margin saved; catalog version %d has %d products\n", snap.Version, snap.Len())
			return nil
		},
	}
}

// bootstrap loads configuration and builds the logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logConfig := &logger.ZapLoggerConfig{
		Encoding: cfg.Log.Encoding,
		Level:    cfg.Log.Level,
	}
	if cfg.Server.Environment == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
	}

	return cfg, logger.NewZapLogger(logConfig), nil
}

// newCatalogService wires the stores, the snapshot cache and the pricing pipeline
func newCatalogService(cfg *config.Config, log *zap.Logger) (*usecase.CatalogService, error) {
	sources, err := filestore.NewStore(filestore.Config{
		Dir:       cfg.Data.Dir,
		CostsName: cfg.Data.CostsName,
		RulesName: cfg.Data.RulesName,
	}, log)
	if err != nil {
		return nil, err
	}

	overrideStore := overrides.NewJSONStore(cfg.Data.OverridesPath(), log)

	p := cfg.Pricing
	return usecase.NewCatalogService(
		sources,
		overrideStore,
		cache.NewSnapshotCache(),
		usecase.CatalogServiceConfig{
			Pricing: usecase.PricingConfig{
				DefaultMargin:        p.DefaultMargin,
				DefaultFreightCode:   p.DefaultFreightCode,
				FreeFreightCode:      p.FreeFreightCode,
				DefaultFreight:       p.DefaultFreight,
				HazardSurcharge:      p.HazardSurcharge,
				StdPackaging1Kg:      p.StdPackaging1Kg,
				StdPackaging5Kg:      p.StdPackaging5Kg,
				ManualCostUplift:     p.ManualCostUplift,
				PackagingCosts:       p.Packaging,
				FreightRates:         p.Freight,
				MasterPriceBackfill:  p.MasterPriceBackfill,
				DetectHazardFromName: p.DetectHazardFromName,
			},
			Vocabulary: usecase.Vocabulary{
				LiquidWords: cfg.Vocabulary.LiquidWords,
				HazardWords: cfg.Vocabulary.HazardWords,
			},
		},
		log,
	), nil
}
