package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/wire"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage monitored channels",
	Long:  "Add and list the platform channels the responder polls",
}

var channelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		name, _ := cmd.Flags().GetString("name")
		platform, _ := cmd.Flags().GetString("platform")
		polling, _ := cmd.Flags().GetBool("polling")
		interval, _ := cmd.Flags().GetInt("interval")

		channel, err := wire.ChannelService().CreateChannel(ctx, primary.CreateChannelRequest{
			Name:                name,
			Platform:            platform,
			PollingEnabled:      polling,
			PollIntervalMinutes: interval,
		})
		if err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}

		fmt.Printf("✓ Created channel %s: %s (%s)\n", channel.ID, channel.Name, channel.Platform)
		if channel.PollingEnabled {
			fmt.Printf("  Polling every %d minute(s)\n", channel.PollIntervalMinutes)
		}
		return nil
	},
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		channels, err := wire.ChannelService().ListChannels(ctx)
		if err != nil {
			return fmt.Errorf("failed to list channels: %w", err)
		}

		if len(channels) == 0 {
			fmt.Println("No channels found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPLATFORM\tPOLLING\tLAST POLLED")
		fmt.Fprintln(w, "--\t----\t--------\t-------\t-----------")
		for _, ch := range channels {
			polling := "off"
			if ch.PollingEnabled {
				polling = fmt.Sprintf("every %dm", ch.PollIntervalMinutes)
			}
			lastPolled := "never"
			if ch.LastPolledAt != nil {
				lastPolled = ch.LastPolledAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ch.ID, ch.Name, ch.Platform, polling, lastPolled)
		}
		w.Flush()
		return nil
	},
}

func init() {
	// channel add flags
	channelAddCmd.Flags().String("name", "", "Channel name")
	channelAddCmd.Flags().String("platform", "", "Platform identifier")
	channelAddCmd.Flags().Bool("polling", true, "Enable polling")
	channelAddCmd.Flags().Int("interval", 0, "Poll interval in minutes")

	// Register subcommands
	channelCmd.AddCommand(channelAddCmd)
	channelCmd.AddCommand(channelListCmd)
}

// ChannelCmd returns the channel command
func ChannelCmd() *cobra.Command {
	return channelCmd
}
