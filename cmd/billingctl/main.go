// billingctl is an admin CLI for the billing service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nexthire/billing/internal/app"
	"github.com/nexthire/billing/internal/billing/application/commands"
	"github.com/nexthire/billing/internal/billing/application/queries"
	"github.com/nexthire/billing/pkg/config"
	"github.com/nexthire/billing/pkg/observability"
)

var (
	containerOnce sync.Once
	container     *app.Container
	containerErr  error
)

// getContainer initializes the application container on first use so that
// help and completion never touch the database.
func getContainer(ctx context.Context) (*app.Container, error) {
	containerOnce.Do(func() {
		logger := observability.LoggerFromEnv()

		cfg, err := config.Load()
		if err != nil {
			containerErr = fmt.Errorf("failed to load config: %w", err)
			return
		}

		container, containerErr = app.NewContainer(ctx, cfg, logger)
	})
	return container, containerErr
}

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Billing service admin CLI",
	Long:  `Inspect the plan catalog, check account balances and grant credits.`,
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List subscription plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		plans, err := c.ListPlansHandler.Handle(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY NAME\tMONTHLY\tYEARLY\tCREDITS/MONTH")
		for _, p := range plans {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", p.Name, p.DisplayName, p.PriceMonthly, p.PriceYearly, p.CreditsPerMonth)
		}
		return w.Flush()
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <email>",
	Short: "Show an account's credit balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		balance, err := c.GetBalanceHandler.Handle(cmd.Context(), queries.GetBalanceQuery{UserEmail: args[0]})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Account: %s\n", balance.Email)
		fmt.Fprintf(out, "Credits: %d (%s)\n", balance.Credits, balance.WarningLevel)
		fmt.Fprintf(out, "Plan: %s (%s)\n", balance.SubscriptionPlan, balance.SubscriptionStatus)
		if balance.SubscriptionEnd != nil {
			fmt.Fprintf(out, "Subscription ends: %s\n", balance.SubscriptionEnd.Local().Format("2 Jan 2006"))
		}
		fmt.Fprintf(out, "Total credits purchased: %d\n", balance.TotalCreditsPurchased)
		return nil
	},
}

var grantReason string

var grantCmd = &cobra.Command{
	Use:   "grant <email> <credits>",
	Short: "Grant credits to an account",
	Long: `Grant credits to an account outside the payment flow.

Examples:
  billingctl grant user@example.com 10
  billingctl grant user@example.com 5 --reason "Support goodwill"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}

		credits, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("credits must be a number: %q", args[1])
		}

		result, err := c.GrantCreditsHandler.Handle(cmd.Context(), commands.GrantCreditsCommand{
			UserEmail: args[0],
			Credits:   credits,
			Reason:    grantReason,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Granted %d credits to %s (new balance: %d)\n", credits, args[0], result.NewBalance)
		return nil
	},
}

func init() {
	grantCmd.Flags().StringVar(&grantReason, "reason", "", "reason recorded in the credit history")

	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(grantCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	if container != nil {
		container.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
