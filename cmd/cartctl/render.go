package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"ordercart/internal/cart"
	"ordercart/internal/menu"
	"ordercart/internal/restore"
)

func (a *app) money(d decimal.Decimal) string {
	return a.cfg.Currency + " " + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

func (a *app) renderMenu(out io.Writer, items []menu.Item) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\t")
	for _, it := range items {
		name := it.Name
		if !it.Available {
			name += " (unavailable)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", it.ID, name, it.Category, a.money(it.Price))
	}
	return tw.Flush()
}

func (a *app) renderCart(out io.Writer, snap cart.Snapshot) error {
	if len(snap.Items) == 0 {
		fmt.Fprintf(out, "cart %s is empty\n", a.cfg.CartID)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tITEM\tQTY\tUNIT\tAMOUNT\tNOTE\t")
	count := 0
	for _, li := range snap.Items {
		count += li.Quantity
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t\n",
			li.ID, li.MenuItem.Name, li.Quantity, a.money(li.UnitPrice), a.money(li.LineTotal), li.SpecialRequests)
	}
	fmt.Fprintln(tw, "\t\t\t\t\t\t")
	fmt.Fprintf(tw, "\titems\t%d\t\t\t\t\n", count)
	fmt.Fprintf(tw, "\tsubtotal\t\t\t%s\t\t\n", a.money(snap.Subtotal))
	fmt.Fprintf(tw, "\ttax\t\t\t%s\t\t\n", a.money(snap.Tax))
	fmt.Fprintf(tw, "\tservice\t\t\t%s\t\t\n", a.money(snap.ServiceCharge))
	fmt.Fprintf(tw, "\ttotal\t\t\t%s\t\t\n", a.money(snap.Total))
	return tw.Flush()
}

func (a *app) renderReport(out io.Writer, rep restore.Report) error {
	if !rep.Found {
		_, err := fmt.Fprintf(out, "cart %s: nothing saved\n", a.cfg.CartID)
		return err
	}
	status := "ok"
	if rep.Drifted {
		status = "drifted"
	}
	_, err := fmt.Fprintf(out, "cart %s: %s lines=%d dropped=%d saved=%s computed=%s\n",
		a.cfg.CartID, status, rep.Lines, rep.Dropped, a.money(rep.Persisted.Total), a.money(rep.Recomputed.Total))
	return err
}
