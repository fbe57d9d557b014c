package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/parallelai/app"
	"github.com/upb/parallelai/config"
	"github.com/upb/parallelai/internal/observability"
	"github.com/upb/parallelai/services/query"
)

// probeQuery is sent by the status command
const probeQuery = "Reply with the single word OK."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parallelai",
	Short: "Query several LLM providers at once",
	Long: `Send a prompt to one LLM provider or broadcast it to every provider
that has an API key configured.

Keys are read from the keys file (PARALLELAI_KEYS_FILE, default
~/.parallelai/keys.env) and then from <PROVIDER>_API_KEY variables.`,
	SilenceUsage: true,
}

// --- query command ---

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Query one provider or all configured providers",
	Long: `Send a prompt to a single provider with --provider, or to every
configured provider when no provider is given.

Broadcast responses are truncated per provider (see --truncate);
targeted responses are returned in full.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		deps, err := buildDependencies(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer deps.Close(cmd.Context())

		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")
		asJSON, _ := cmd.Flags().GetBool("json")

		req := query.Request{
			Query:    strings.Join(args, " "),
			Provider: provider,
			Model:    model,
		}
		out := cmd.OutOrStdout()

		if provider != "" {
			result, err := deps.Query.QueryOne(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, result)
			}
			printTargeted(out, result)
			return nil
		}

		result, err := deps.Query.QueryAll(cmd.Context(), req)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, result)
		}
		printBroadcast(out, result)
		return nil
	},
}

// --- providers command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers and their key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		deps, err := buildDependencies(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer deps.Close(cmd.Context())

		statuses, err := deps.Query.Providers(cmd.Context())
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(cmd.OutOrStdout(), statuses)
		}
		return printProviders(cmd.OutOrStdout(), statuses)
	},
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every configured provider",
	Long: `Send a short probe prompt to every provider with a key and report
whether each one answered, and the failure category when it did not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		deps, err := buildDependencies(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer deps.Close(cmd.Context())

		result, err := deps.Query.QueryAll(cmd.Context(), query.Request{Query: probeQuery})
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printStatus(cmd.OutOrStdout(), result, deps.Metrics.Snapshot())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-provider call timeout (default from DISPATCH_TIMEOUT)")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (default from LOG_LEVEL)")

	queryCmd.Flags().StringP("provider", "p", "", "send the query to this provider only")
	queryCmd.Flags().StringP("model", "m", "", "override the provider's default model")
	queryCmd.Flags().Int("truncate", -1, "characters kept per provider in a broadcast, 0 disables truncation")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig reads the environment and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.New(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// CLI output goes to stdout; keep logs quiet unless asked.
	cfg.Observability.LogLevel = "error"
	cfg.Observability.LogFormat = "text"
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Observability.LogLevel = level
	}

	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Dispatch.Timeout = timeout
	}
	if f := cmd.Flags().Lookup("truncate"); f != nil && f.Changed {
		truncate, _ := cmd.Flags().GetInt("truncate")
		cfg.Dispatch.TruncateChars = truncate
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*app.Dependencies, error) {
	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return deps, nil
}
