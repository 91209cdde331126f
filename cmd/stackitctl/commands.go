package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stackit/internal/cli"
	"stackit/internal/client"
	"stackit/internal/config"
	"stackit/internal/core"
	applog "stackit/internal/log"
)

type app struct {
	baseURL string
	timeout time.Duration
	api     *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "stackitctl",
		Short:         "Manage monthly balances and savings goals on a StackIt server",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg := config.Load()
			cli.SetupLogger(cfg, applog.ComponentCLI)
			if !cmd.Flags().Changed("url") {
				a.baseURL = cfg.StackitURL
			}
			api, err := client.New(client.Config{BaseURL: a.baseURL})
			if err != nil {
				return err
			}
			a.api = api
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.baseURL, "url", "http://localhost:8080", "StackIt server URL (defaults to STACKIT_URL)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 3*time.Minute, "overall deadline for a command, retries included")

	balancesCmd := &cobra.Command{
		Use:     "balances",
		Aliases: []string{"b"},
		Short:   "List, record and delete monthly balances",
	}
	balancesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recorded balances by month",
			Args:  cobra.NoArgs,
			RunE:  a.listBalances,
		},
		&cobra.Command{
			Use:   "add [month] [balance]",
			Short: "Record the balance of a month, replacing any existing one",
			Long: `Record the balance of a month, replacing any existing one.
The month accepts YYYY-MM or YYYY-MM-DD; the amount accepts . or , as decimal separator.`,
			Args: cobra.ExactArgs(2),
			RunE: a.addBalance,
		},
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a balance by id",
			Args:  cobra.ExactArgs(1),
			RunE:  a.deleteBalance,
		},
	)

	goalsCmd := &cobra.Command{
		Use:     "goals",
		Aliases: []string{"g"},
		Short:   "List, create and delete savings goals",
	}
	goalsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List savings goals by due month",
			Args:  cobra.NoArgs,
			RunE:  a.listGoals,
		},
		&cobra.Command{
			Use:   "add [label] [amount] [due-month]",
			Short: "Create a savings goal",
			Args:  cobra.ExactArgs(3),
			RunE:  a.addGoal,
		},
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a savings goal by id",
			Args:  cobra.ExactArgs(1),
			RunE:  a.deleteGoal,
		},
	)

	progressCmd := &cobra.Command{
		Use:     "progress",
		Aliases: []string{"p"},
		Short:   "Show how far the latest balance goes toward upcoming goals",
		Args:    cobra.NoArgs,
		RunE:    a.showProgress,
	}

	root.AddCommand(balancesCmd, goalsCmd, progressCmd)
	root.SetErr(os.Stderr)
	return root
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) listBalances(cmd *cobra.Command, args []string) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	items, err := a.api.ListBalances(ctx)
	if err != nil {
		return err
	}
	return printBalances(cmd.OutOrStdout(), items)
}

func (a *app) addBalance(cmd *cobra.Command, args []string) error {
	month, err := core.ParseMonth(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	saved, err := a.api.UpsertBalance(ctx, month, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded balance %d for %s: %s\n", saved.ID, saved.Month, saved.Balance.StringFixed(2))
	return nil
}

func (a *app) deleteBalance(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	removed, err := a.api.DeleteBalance(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted balance %d (%s)\n", removed.ID, removed.Month)
	return nil
}

func (a *app) listGoals(cmd *cobra.Command, args []string) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	items, err := a.api.ListGoals(ctx)
	if err != nil {
		return err
	}
	return printGoals(cmd.OutOrStdout(), items)
}

func (a *app) addGoal(cmd *cobra.Command, args []string) error {
	due, err := core.ParseMonth(args[2])
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	saved, err := a.api.CreateGoal(ctx, args[0], args[1], due)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created goal %d %q due %s\n", saved.ID, saved.Label, saved.DueMonth)
	return nil
}

func (a *app) deleteGoal(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	removed, err := a.api.DeleteGoal(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %d %q\n", removed.ID, removed.Label)
	return nil
}

func (a *app) showProgress(cmd *cobra.Command, args []string) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	goals, err := a.api.GoalProgress(ctx)
	if err != nil {
		return err
	}
	return printProgress(cmd.OutOrStdout(), goals)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrMalformedInput, s)
	}
	return id, nil
}
