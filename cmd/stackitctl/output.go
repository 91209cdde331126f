package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"stackit/internal/core"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printBalances(w io.Writer, items []core.MonthlyBalance) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No balances recorded.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tMONTH\tBALANCE")
	for _, b := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", b.ID, b.Month, b.Balance.StringFixed(2))
	}
	return tw.Flush()
}

func printGoals(w io.Writer, items []core.Goal) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No savings goals.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tLABEL\tAMOUNT\tDUE")
	for _, g := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Label, g.Amount.StringFixed(2), g.DueMonth)
	}
	return tw.Flush()
}

// printProgress shows remaining as leftover funds for covered goals and as
// the shortfall for the first goal that cannot be covered.
func printProgress(w io.Writer, goals []core.Goal) error {
	if len(goals) == 0 {
		_, err := fmt.Fprintln(w, "No goal progress: record a balance and an upcoming goal first.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tLABEL\tAMOUNT\tDUE\tPROGRESS\tREMAINING")
	for _, g := range goals {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s%%\t%s\n",
			g.ID, g.Label, g.Amount.StringFixed(2), g.DueMonth,
			g.Progression.StringFixed(1), g.Remaining.StringFixed(2))
	}
	return tw.Flush()
}
