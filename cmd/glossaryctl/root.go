package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/glossary/internal/logging"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "glossaryctl",
	Short: "Convert and import business glossary workbooks",
	Long: `glossaryctl turns a glossary workbook into the CSV accepted by the
catalog's glossary bulk import, or creates the terms through the catalog API.

Catalog settings come from the environment (CATALOG_URL, CATALOG_TOKEN,
CATALOG_GLOSSARY); a .env file in the working directory is loaded first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; existing variables win.
		_ = godotenv.Load()
		slog.SetDefault(logging.New(os.Stderr, logLevel, logFormat))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}
