package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/engine"
)

var (
	flagContextK    int
	flagContextJSON bool
)

var contextCmd = &cobra.Command{
	Use:   "context [session-id]",
	Short: "Assemble the working context for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVar(&flagContextK, "k", 20, "number of mid-term memories to include")
	contextCmd.Flags().BoolVar(&flagContextJSON, "json", false, "emit JSON instead of text")
}

func runContext(cmd *cobra.Command, args []string) error {
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
	ctx, err := eng.AssembleContext(args[0], flagContextK, cfg)
	if err != nil {
		return err
	}

	if flagContextJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ctx)
	}

	fmt.Printf("short-term (%d turns):\n", len(ctx.ShortTerm))
	for _, t := range ctx.ShortTerm {
		fmt.Printf("  %s: %s\n", t.Role, t.Text)
	}
	fmt.Printf("mid-term (%d memories):\n", len(ctx.MidTerm))
	for _, m := range ctx.MidTerm {
		fmt.Printf("  #%d [%.3f] %s\n", m.ID, m.Score, m.Content)
	}
	return nil
}
