package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMenuCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			items := c.Available()
			if all {
				items = c.All()
			}
			return a.renderMenu(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include unavailable items")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var (
		qty  int
		note string
	)
	cmd := &cobra.Command{
		Use:   "add <menu-item-id>",
		Short: "Add a menu item to the cart",
		Long: `Adds a menu item. Adding the same item with the same note again
increases the existing line instead of creating a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			it, ok := c.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown menu item %q", args[0])
			}
			if !it.Available {
				return fmt.Errorf("menu item %q is not available", it.ID)
			}
			st, err := a.openCart()
			if err != nil {
				return err
			}
			li, err := st.AddItem(it, qty, note)
			if err != nil {
				return err
			}
			if li.ID == "" {
				return fmt.Errorf("menu item %q has no valid price", it.ID)
			}
			a.log.Debug("line added", zap.String("line", li.ID), zap.Int("quantity", li.Quantity))
			return a.renderCart(cmd.OutOrStdout(), st.Snapshot())
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity (1-99)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "special requests")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "update <line-id> <quantity>",
		Short: "Set the quantity and note of a cart line",
		Long: `Sets a line's quantity and replaces its note (an omitted --note clears it).
A quantity of zero or less removes the line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			st, err := a.openCart()
			if err != nil {
				return err
			}
			if _, err := st.UpdateItem(args[0], qty, note); err != nil {
				return err
			}
			return a.renderCart(cmd.OutOrStdout(), st.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "special requests")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <line-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openCart()
			if err != nil {
				return err
			}
			if err := st.RemoveItem(args[0]); err != nil {
				return err
			}
			return a.renderCart(cmd.OutOrStdout(), st.Snapshot())
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openCart()
			if err != nil {
				return err
			}
			if err := st.ClearCart(); err != nil {
				return err
			}
			return a.renderCart(cmd.OutOrStdout(), st.Snapshot())
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openCart()
			if err != nil {
				return err
			}
			return a.renderCart(cmd.OutOrStdout(), st.Snapshot())
		},
	}
}

func newAuditCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare persisted cart totals with recomputed ones",
		Long: `Loads the saved cart without modifying it and reports whether its stored
totals still match its lines under the configured rates. With --interval the
audit repeats until interrupted and metrics are served on metrics.addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.restorer()
			if err != nil {
				return err
			}
			if interval <= 0 {
				rep, err := r.Audit()
				if err != nil {
					return err
				}
				return a.renderReport(cmd.OutOrStdout(), rep)
			}
			if a.cfg.Metrics.Addr != "" {
				a.serveMetrics()
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				rep, err := r.Audit()
				if err != nil {
					a.log.Warn("audit failed", zap.Error(err))
				} else if err := a.renderReport(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the audit at this interval")
	return cmd
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.onClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	a.log.Info("serving metrics", zap.String("addr", a.cfg.Metrics.Addr))
}

// newSeedCmd fills the cart with random orders from the available menu.
func newSeedCmd(a *app) *cobra.Command {
	var (
		count int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add random menu items to the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			items := c.Available()
			if len(items) == 0 {
				return errors.New("menu has no available items")
			}
			st, err := a.openCart()
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			notes := []string{"", "", "no onion", "extra spicy"}
			for i := 0; i < count; i++ {
				it := items[rng.Intn(len(items))]
				if _, err := st.AddItem(it, 1+rng.Intn(3), notes[rng.Intn(len(notes))]); err != nil {
					return fmt.Errorf("seed add %d: %w", i+1, err)
				}
			}
			a.log.Info("seeded cart", zap.Int("adds", count), zap.Int64("seed", seed))
			return a.renderCart(cmd.OutOrStdout(), st.Snapshot())
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of adds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}
