// insurxctl is the operator CLI for the InsurX portal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/insurx/insurx-web/internal/config"
	"github.com/insurx/insurx-web/internal/generator"
	"github.com/insurx/insurx-web/internal/observability"
	"github.com/insurx/insurx-web/internal/payment"
	"github.com/insurx/insurx-web/internal/store"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "insurxctl",
		Short:         "InsurX portal operator tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(plansCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(sessionsCmd())

	return root
}

func plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Print the checkout price table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printPlans(cmd.OutOrStdout())
		},
	}
}

func printPlans(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tNAME\tAMOUNT\tPRICE")
	for _, p := range payment.Plans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.Plan, p.Name, p.Amount, p.Description())
	}
	return tw.Flush()
}

// loadGenerator builds the generator the server would use. Logs go to stderr.
func loadGenerator(cmd *cobra.Command) (generator.Generator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, "text")
	return generator.New(cfg.Gemini, logger), nil
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the insurance assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message is required")
			}
			gen, err := loadGenerator(cmd)
			if err != nil {
				return err
			}
			reply := gen.Chat(cmd.Context(), message, nil)
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var loc generator.Location
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Produce a climate risk analysis for an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc.Address = strings.TrimSpace(loc.Address)
			loc.City = strings.TrimSpace(loc.City)
			loc.PostalCode = strings.TrimSpace(loc.PostalCode)
			if loc.Address == "" || loc.City == "" {
				return fmt.Errorf("--address and --city are required")
			}
			gen, err := loadGenerator(cmd)
			if err != nil {
				return err
			}
			reply := gen.AnalyzeRisk(cmd.Context(), loc)
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&loc.Address, "address", "", "Street address")
	cmd.Flags().StringVar(&loc.City, "city", "", "City")
	cmd.Flags().StringVar(&loc.PostalCode, "postal-code", "", "Postal code (optional)")

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}
	cmd.AddCommand(pruneCmd())
	return cmd
}

func pruneCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions from the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dbPath = cfg.DBPath
			}
			n, err := pruneSessions(cmd.Context(), dbPath, time.Now(), observability.NewLogger(cmd.ErrOrStderr(), "info", "text"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired sessions\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to DB_PATH)")
	return cmd
}

func pruneSessions(ctx context.Context, dbPath string, now time.Time, logger *slog.Logger) (int64, error) {
	repo, err := store.NewSQLite(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("Failed to close database", "error", closeErr)
		}
	}()
	n, err := repo.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}
