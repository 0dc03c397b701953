package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/store"
)

var (
	flagListLayer string
	flagListQuery string
	flagListLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List or search stored memories",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&flagListLayer, "layer", "", "filter by tier: mid or long")
	listCmd.Flags().StringVar(&flagListQuery, "query", "", "full-text query")
	listCmd.Flags().IntVar(&flagListLimit, "limit", 50, "maximum results")
}

func runList(cmd *cobra.Command, args []string) error {
	if flagListLayer != "" && flagListLayer != store.LayerMid && flagListLayer != store.LayerLong {
		return fmt.Errorf("layer must be mid or long, got %q", flagListLayer)
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

	memories, err := db.SearchMemories(flagListLayer, flagListQuery, flagListLimit)
	if err != nil {
		return err
	}
	if len(memories) == 0 {
		fmt.Println("no memories found")
		return nil
	}

	for _, m := range memories {
		tags := ""
		if len(m.Tags) > 0 {
			tags = " [" + strings.Join(m.Tags, ",") + "]"
		}
		fmt.Printf("#%d %-4s %.3f hits=%d%s %s\n", m.ID, m.Layer, m.Score, m.Hits, tags, m.Content)
	}
	return nil
}
