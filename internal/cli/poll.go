package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/wire"
)

// PollCmd returns the poll command
func PollCmd() *cobra.Command {
	var channelID string

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run one polling tick immediately",
		Long:  `Fetch new platform interactions into the queue, once, without starting the daemon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if channelID != "" {
				channel, err := wire.ChannelService().GetChannel(ctx, channelID)
				if err != nil {
					return fmt.Errorf("channel not found: %w", err)
				}
				enqueued, err := wire.Poller().PollChannel(ctx, channel)
				if err != nil {
					return fmt.Errorf("poll failed for %s: %w", channelID, err)
				}
				fmt.Printf("✓ Polled %s: %d new item(s)\n", channelID, enqueued)
				return nil
			}

			if err := wire.Poller().RunTick(ctx); err != nil {
				return fmt.Errorf("poll failed: %w", err)
			}
			fmt.Println("✓ Poll complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&channelID, "channel", "", "Poll a single channel only (ignores the poll interval)")
	return cmd
}
