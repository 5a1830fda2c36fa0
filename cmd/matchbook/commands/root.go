package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"matchbook/internal/config"
	"matchbook/internal/engine"
	"matchbook/internal/llm"
	"matchbook/internal/logging"
	"matchbook/internal/runner"
	"matchbook/internal/server"
	"matchbook/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	engineRunner *runner.Runner
)

var rootCmd = &cobra.Command{
	Use:   "matchbook",
	Short: "Matchbook is a batched social matching engine",
	Long: `A matching engine that pairs personas across dating, business, friendship
and general domains: candidate pooling, two-pass ranking, match recording with
cooldowns, and feedback absorption into reliability state.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		// Initialize storage
		st, err := store.NewFileStore(cfg.DataPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open data directory")
		}

		// Initialize LLM provider (nil in heuristic-only modes)
		provider, err := llm.FromMode(cmd.Context(), cfg.LLMMode, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize LLM provider")
		}

		weights := cfg.Weights()
		engineRunner = runner.New(st, cfg, engine.Deps{LLM: provider, Weights: &weights})

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Matchbook starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.NewServer(engineRunner, cfg.HTTPAddr)
		if err := srv.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
