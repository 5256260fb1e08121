package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/wire"
)

// CycleCmd returns the cycle command
func CycleCmd() *cobra.Command {
	var channelID string

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one automation cycle immediately",
		Long:  `Match enabled rules against pending queue items and execute actions, once, without starting the daemon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if channelID != "" {
				if err := wire.Engine().RunChannel(ctx, channelID); err != nil {
					return fmt.Errorf("cycle failed for %s: %w", channelID, err)
				}
				fmt.Printf("✓ Cycle complete for %s\n", channelID)
				return nil
			}

			if err := wire.Engine().RunCycle(ctx); err != nil {
				return fmt.Errorf("cycle failed: %w", err)
			}
			fmt.Println("✓ Cycle complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&channelID, "channel", "", "Run a single channel only")
	return cmd
}
