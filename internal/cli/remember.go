package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/store"
)

var (
	flagRememberLayer      string
	flagRememberImportance bool
	flagRememberTags       []string
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Store a memory directly, bypassing extraction",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemember,
}

func init() {
	rememberCmd.Flags().StringVar(&flagRememberLayer, "layer", store.LayerMid, "tier to store in: mid or long")
	rememberCmd.Flags().BoolVar(&flagRememberImportance, "important", false, "mark the memory important")
	rememberCmd.Flags().StringSliceVar(&flagRememberTags, "tag", nil, "tag to attach (repeatable)")
}

func runRemember(cmd *cobra.Command, args []string) error {
	if flagRememberLayer != store.LayerMid && flagRememberLayer != store.LayerLong {
		return fmt.Errorf("layer must be mid or long, got %q", flagRememberLayer)
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

	mem := &store.Memory{
		Layer:      flagRememberLayer,
		Content:    args[0],
		Importance: flagRememberImportance,
		Tags:       flagRememberTags,
	}
	err = db.WithTx(func(s *store.Store) error {
		if err := s.InsertMemory(mem); err != nil {
			return err
		}
		return s.AddEvent(mem.ID, store.ActionCreated, "manual")
	})
	if err != nil {
		return err
	}

	fmt.Printf("memory %d stored in %s tier\n", mem.ID, mem.Layer)
	return nil
}
