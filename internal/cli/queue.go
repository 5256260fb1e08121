package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/wire"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the interaction queue",
	Long:  "List and view queued platform interactions",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queue items",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		channelID, _ := cmd.Flags().GetString("channel")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := wire.QueueService().ListItems(ctx, channelID, status, limit)
		if err != nil {
			return fmt.Errorf("failed to list queue items: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("No queue items found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCHANNEL\tSTATUS\tPRIORITY\tCLASS\tBODY")
		fmt.Fprintln(w, "--\t-------\t------\t--------\t-----\t----")
		for _, item := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
				item.ID, item.ChannelID, item.Status, item.Priority,
				item.Classification, truncate(item.Body, 48))
		}
		w.Flush()
		return nil
	},
}

var queueShowCmd = &cobra.Command{
	Use:   "show [item-id]",
	Short: "Show queue item details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid item ID %q", args[0])
		}

		item, err := wire.QueueService().GetItem(ctx, id)
		if err != nil {
			return fmt.Errorf("queue item not found: %w", err)
		}

		fmt.Printf("Item: %d\n", item.ID)
		fmt.Printf("Channel: %s\n", item.ChannelID)
		fmt.Printf("External ID: %s\n", item.ExternalID)
		fmt.Printf("Content: %s\n", item.ContentRef)
		fmt.Printf("Status: %s\n", item.Status)
		fmt.Printf("Priority: %d\n", item.Priority)
		if item.Classification != "" {
			fmt.Printf("Classification: %s\n", item.Classification)
		}
		if item.AuthorID != "" {
			fmt.Printf("Author: %s (%s)\n", item.AuthorID, item.AuthorStatus)
		}
		fmt.Printf("Created: %s\n", item.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Println()
		fmt.Println(item.Body)
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	// queue list flags
	queueListCmd.Flags().String("channel", "", "Filter by channel ID")
	queueListCmd.Flags().String("status", "", "Filter by status (pending|processing|needs_review|done)")
	queueListCmd.Flags().Int("limit", 50, "Maximum items to show")

	// Register subcommands
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueShowCmd)
}

// QueueCmd returns the queue command
func QueueCmd() *cobra.Command {
	return queueCmd
}
