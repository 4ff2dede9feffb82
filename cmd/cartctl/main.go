package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordercart/internal/config"
	"ordercart/internal/logging"
	"ordercart/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root has resolved
// configuration.
type app struct {
	cfgPath string
	cartID  string
	backend string
	dataDir string
	menu    string
	verbose bool

	cfg     config.Config
	log     *zap.Logger
	reg     *metrics.Registry
	closers []func() error
}

// newRootCmd builds the command tree over a. Callers run a.teardown once
// Execute returns, whether or not the command failed.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cartctl",
		Short: "Drive a persisted restaurant order cart",
		Long: `cartctl manages one order cart per table or session.

Every change is saved through the configured backend and totals are always
recomputed from the cart lines, including right after a cart is reopened.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "cartctl.yaml", "config file")
	pf.StringVar(&a.cartID, "cart", "", "cart id (overrides config)")
	pf.StringVar(&a.backend, "backend", "", "storage backend: memory|file|pebble|badger|redis|kafka")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory for file, pebble and badger backends")
	pf.StringVar(&a.menu, "menu", "", "menu catalog YAML")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newMenuCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newRemoveCmd(a),
		newClearCmd(a),
		newShowCmd(a),
		newAuditCmd(a),
		newSeedCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("cart") {
		cfg.CartID = a.cartID
	}
	if flags.Changed("backend") {
		cfg.Backend = a.backend
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("menu") {
		cfg.MenuPath = a.menu
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.reg = metrics.NewRegistry()
	return nil
}

func (a *app) teardown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	if a.log != nil {
		_ = a.log.Sync()
	}
}
