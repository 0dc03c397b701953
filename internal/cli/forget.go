package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/store"
)

var flagForgetHard bool

var forgetCmd = &cobra.Command{
	Use:   "forget [memory-id]",
	Short: "Archive a memory, or mark it deleted with --hard",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func init() {
	forgetCmd.Flags().BoolVar(&flagForgetHard, "hard", false, "mark the memory deleted instead of archived")
}

func runForget(cmd *cobra.Command, args []string) error {
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

	target := store.StatusArchived
	action := store.ActionArchived
	if flagForgetHard {
		target = store.StatusDeleted
		action = store.ActionDeleted
	}

	err = db.WithTx(func(s *store.Store) error {
		if err := s.TransitionStatus(id, target); err != nil {
			return err
		}
		return s.AddEvent(id, action, "manual")
	})
	if err != nil {
		return err
	}

	fmt.Printf("memory %d %s\n", id, target)
	return nil
}
