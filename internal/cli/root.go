package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Tiered working memory for conversational agents",
	Long: "Strata keeps a conversational agent's memory in tiers: a short-term turn\n" +
		"window, a mid-term pool of extracted facts, and a long-term pool of\n" +
		"reinforced ones. Facts decay, merge, and promote over time.",
}

var flagConfig string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (TOML)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addTurnCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig resolves the effective config: the --config file when given,
// defaults otherwise.
func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.Default(), nil
}

// openDB opens the database at the configured path, falling back to the
// default location under the user's home directory.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
