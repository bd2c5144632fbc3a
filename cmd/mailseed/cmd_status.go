package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/mailseed/internal/model"
	"github.com/nhle/mailseed/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted campaign progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}

		db, err := store.NewSQLiteStore(cfg.Paths.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		state, err := db.LoadState(cmd.Context())
		if err != nil {
			return err
		}
		if state == nil {
			fmt.Println("no campaign state persisted yet")
			return nil
		}

		records, err := db.LoadThreadRecords(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("phase:     %s\n", state.Phase)
		fmt.Printf("new:       %d/%d\n", state.New.Succeeded, state.New.Attempted)
		fmt.Printf("reply:     %d/%d\n", state.Reply.Succeeded, state.Reply.Attempted)
		fmt.Printf("forward:   %d/%d\n", state.Forward.Succeeded, state.Forward.Attempted)
		fmt.Printf("overflow:  %d/%d\n", state.Overflow.Succeeded, state.Overflow.Attempted)
		fmt.Printf("estimated: %d bytes (target %d)\n", state.EstimatedBytes, cfg.Campaign.TargetBytes)
		fmt.Printf("threads:   %d records\n", len(records))
		fmt.Printf("started:   %s\n", state.StartedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}
