package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/engine"
)

var explainCmd = &cobra.Command{
	Use:   "explain [memory-id]",
	Short: "Show why a memory scores the way it does",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid memory id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := engine.New(db, nil)
	exp, err := eng.Explain(id, time.Now().UnixMilli(), cfg)
	if err != nil {
		return err
	}
	if exp == nil {
		return fmt.Errorf("memory %d not found", id)
	}

	fmt.Printf("#%d (%s, %s) %s\n", exp.ID, exp.Layer, exp.Status, exp.Content)
	fmt.Printf("  score:      %.4f\n", exp.Score)
	fmt.Printf("    freq:     %.4f (hits=%d)\n", exp.Breakdown.Freq, exp.Hits)
	fmt.Printf("    recency:  %.4f (age=%.1f days)\n", exp.Breakdown.Recency, exp.AgeDays)
	fmt.Printf("    imp:      %.4f\n", exp.Breakdown.Importance)
	if len(exp.MatchedRules) > 0 {
		fmt.Printf("  rules:      %s\n", strings.Join(exp.MatchedRules, ", "))
	}
	if exp.LastAction != "" {
		fmt.Printf("  last event: %s\n", exp.LastAction)
	}
	return nil
}
