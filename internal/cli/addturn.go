package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/augment"
	"github.com/strata-agent/strata/internal/engine"
	"github.com/strata-agent/strata/internal/store"
)

var (
	flagSession   string
	flagRole      string
	flagNoExtract bool
)

var addTurnCmd = &cobra.Command{
	Use:   "add-turn [text]",
	Short: "Record a conversation turn and extract facts from it",
	Long: "Records one turn and, for user turns, runs fact extraction over it.\n" +
		"Pass \"-\" as the text to read it from stdin.",
	Args: cobra.ExactArgs(1),
	RunE: runAddTurn,
}

func init() {
	addTurnCmd.Flags().StringVar(&flagSession, "session", "", "session ID (generated when omitted)")
	addTurnCmd.Flags().StringVar(&flagRole, "role", store.RoleUser, "turn role: user or assistant")
	addTurnCmd.Flags().BoolVar(&flagNoExtract, "no-extract", false, "store the turn without extracting facts")
}

func runAddTurn(cmd *cobra.Command, args []string) error {
	text := args[0]
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}

	sessionID := flagSession
	if sessionID == "" {
		sessionID = uuid.NewString()
		fmt.Fprintf(os.Stderr, "session: %s\n", sessionID)
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

	aug, err := augment.NewClient(cfg.Augment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: augmentation not configured (%v), heuristic rules only\n", err)
	}
	eng := engine.New(db, aug)

	turn := &store.Turn{SessionID: sessionID, Role: flagRole, Text: text}
	results, err := eng.IngestTurn(context.Background(), turn, flagNoExtract, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("turn %d stored\n", turn.ID)
	for _, res := range results {
		fmt.Printf("  [%s] #%d %s\n", res.Action, res.MemoryID, res.Content)
	}
	return nil
}
