// Package cmd - allocate command
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"shipalloc/adapters/csvfile"
	"shipalloc/adapters/history"
	"shipalloc/adapters/postgres"
	"shipalloc/core/alloc"
	"shipalloc/core/flow"
	"shipalloc/core/handler"
	"shipalloc/core/output"
	"shipalloc/core/units"
	"shipalloc/internal/config"
	ierrors "shipalloc/internal/errors"
	"shipalloc/internal/logging"
)

var (
	outputFormat   string
	strategyName   string
	thresholdValue string
	warehousePath  string
	inventoryPath  string
	shipPath       string
	outputPath     string
)

// allocateCmd represents the allocate command
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Run one allocation flow",
	Long: `Parse the configured warehouse, inventory and ship snapshots,
allocate the incoming quantities with the selected strategy, store the
resulting inventory, and print a report.

Examples:
  shipalloc allocate
  shipalloc allocate --strategy first_available --threshold 0.9
  shipalloc allocate --warehouses w.csv --inventory inv.csv --ship ship.csv --output out.csv`,
	Args: cobra.NoArgs,
	RunE: runAllocate,
}

func init() {
	allocateCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
	allocateCmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "allocation strategy (overrides config)")
	allocateCmd.Flags().StringVarP(&thresholdValue, "threshold", "t", "", "ideal fill ratio in [0,1] (overrides config)")
	allocateCmd.Flags().StringVar(&warehousePath, "warehouses", "", "warehouse capacity CSV (overrides config)")
	allocateCmd.Flags().StringVar(&inventoryPath, "inventory", "", "current inventory CSV (overrides config)")
	allocateCmd.Flags().StringVar(&shipPath, "ship", "", "ship inventory CSV (overrides config)")
	allocateCmd.Flags().StringVar(&outputPath, "output", "", "resulting inventory CSV (overrides config)")
}

func runAllocate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()
	applyFlagOverrides(cfg)

	allocator, err := buildAllocator(cfg)
	if err != nil {
		return err
	}

	wp, ip, sp, storer, cleanup, err := buildHandlers(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := flow.New(wp, ip, sp, allocator, storer)
	if err != nil {
		return err
	}

	result, runErr := f.Run(ctx)
	saveHistory(ctx, cfg, result)

	if runErr != nil {
		var capErr *alloc.InsufficientCapacityError
		if errors.As(runErr, &capErr) {
			fmt.Fprintln(os.Stderr, "Allocation failed: not enough capacity.")
			for _, s := range capErr.Shortfalls {
				fmt.Fprintf(os.Stderr, "  %s: %s unallocated\n", s.Commodity, s.Remainder)
			}
			return runErr
		}
		return runErr
	}

	formatter, err := output.New(outputFormat)
	if err != nil {
		return err
	}
	return formatter.Render(os.Stdout, result)
}

func applyFlagOverrides(cfg *config.Config) {
	if strategyName != "" {
		cfg.Allocator.Strategy = strategyName
	}
	if thresholdValue != "" {
		cfg.Allocator.Threshold = thresholdValue
	}
	if warehousePath != "" {
		cfg.Source.WarehousePath = warehousePath
	}
	if inventoryPath != "" {
		cfg.Source.InventoryPath = inventoryPath
	}
	if shipPath != "" {
		cfg.Source.ShipPath = shipPath
	}
	if outputPath != "" {
		cfg.Sink.OutputPath = outputPath
	}
}

func buildAllocator(cfg *config.Config) (alloc.Allocator, error) {
	threshold, err := decimal.NewFromString(cfg.Allocator.Threshold)
	if err != nil {
		return nil, ierrors.Wrapf(ierrors.TypeConfig, err, "bad threshold %q", cfg.Allocator.Threshold)
	}
	return alloc.DefaultRegistry().Create(cfg.Allocator.Strategy, alloc.Options{
		Threshold: threshold,
		Units:     units.Default(),
	})
}

// buildHandlers selects concrete handler implementations from config.
// A shared pgx pool serves both source and sink when both are Postgres.
func buildHandlers(ctx context.Context, cfg *config.Config) (handler.WarehouseParser, handler.InventoryParser, handler.ShipInventoryParser, handler.InventoryStorer, func(), error) {
	var pool *pgxpool.Pool
	cleanup := func() {
		if pool != nil {
			pool.Close()
		}
	}

	var wp handler.WarehouseParser
	var ip handler.InventoryParser
	var sp handler.ShipInventoryParser
	switch cfg.Source.Kind {
	case "csv":
		wp = csvfile.NewWarehouseSource(cfg.Source.WarehousePath)
		ip = csvfile.NewInventorySource(cfg.Source.InventoryPath)
		sp = csvfile.NewShipSource(cfg.Source.ShipPath)
	case "postgres":
		p, err := postgres.NewPool(ctx, cfg.Source.DatabaseURLEnv)
		if err != nil {
			return nil, nil, nil, nil, cleanup, err
		}
		pool = p
		src := postgres.NewSource(pool)
		wp, ip, sp = src, src, src
	default:
		return nil, nil, nil, nil, cleanup, ierrors.Newf(ierrors.TypeConfig, "unknown source kind: %s", cfg.Source.Kind)
	}

	var storer handler.InventoryStorer
	switch cfg.Sink.Kind {
	case "csv":
		storer = csvfile.NewSink(cfg.Sink.OutputPath)
	case "postgres":
		if pool == nil || cfg.Sink.DatabaseURLEnv != cfg.Source.DatabaseURLEnv {
			p, err := postgres.NewPool(ctx, cfg.Sink.DatabaseURLEnv)
			if err != nil {
				return nil, nil, nil, nil, cleanup, err
			}
			if pool == nil {
				pool = p
			} else {
				prev := cleanup
				cleanup = func() { p.Close(); prev() }
			}
			storer = postgres.NewSink(p)
		} else {
			storer = postgres.NewSink(pool)
		}
	default:
		return nil, nil, nil, nil, cleanup, ierrors.Newf(ierrors.TypeConfig, "unknown sink kind: %s", cfg.Sink.Kind)
	}

	return wp, ip, sp, storer, cleanup, nil
}

func saveHistory(ctx context.Context, cfg *config.Config, result *flow.Result) {
	if !cfg.History.Enabled || result == nil {
		return
	}
	store, err := history.Open(history.Backend(cfg.History.Backend), cfg.History.Directory)
	if err != nil {
		logging.Sugar.Warnw("history store unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := store.Save(ctx, history.FromResult(result)); err != nil {
		logging.Sugar.Warnw("failed to save run history", "error", err)
	}
}
