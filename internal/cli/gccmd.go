package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/engine"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Run one lifecycle pass: rescore, promote, archive, evict, prune",
	RunE:  runGC,
}

func runGC(cmd *cobra.Command, args []string) error {
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
	res, err := eng.RunGC(time.Now().UnixMilli(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("rescored:     %d\n", res.Rescored)
	fmt.Printf("promoted:     %d\n", res.Promoted)
	fmt.Printf("archived:     %d\n", res.Archived)
	fmt.Printf("deleted:      %d\n", res.Deleted)
	fmt.Printf("pruned turns: %d\n", res.PrunedTurns)
	fmt.Printf("avg score:    %.3f\n", res.AvgScore)
	fmt.Printf("avg age:      %.1f days\n", res.AvgAgeDays)
	return nil
}
