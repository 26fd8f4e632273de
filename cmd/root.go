package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// configName is the config file name without extension, looked up in the working directory.
	configName string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "promptcoder",
	Short: "Refine rough prompt ideas into structured LLM prompts.",
	Long: `promptcoder sends a rough prompt idea, or a set of structured fields,
to an LLM and returns a refined prompt plus the list of improvements made.
Run it as an HTTP service with "serve" or one-shot with "refine".`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		// .env is optional; real environment variables win.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "error", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultConfig := os.Getenv("APP_ENV")
	if defaultConfig == "" {
		defaultConfig = "default"
	}
	rootCmd.PersistentFlags().StringVarP(&configName, "config", "c", defaultConfig, "config file name without extension (env APP_ENV)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refineCmd)
}
