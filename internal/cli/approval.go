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

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "Manage the human approval queue",
	Long:  "List, approve, reject and sweep pending approval entries",
}

var approvalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending approvals (urgent first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		channelID, _ := cmd.Flags().GetString("channel")
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := wire.ApprovalService().GetPending(ctx, channelID, limit)
		if err != nil {
			return fmt.Errorf("failed to list approvals: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No pending approvals.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCHANNEL\tACTION\tPRIORITY\tURGENT\tAUTO-APPROVE\tCREATED")
		fmt.Fprintln(w, "--\t-------\t------\t--------\t------\t------------\t-------")
		for _, entry := range entries {
			urgent := ""
			if entry.Urgent {
				urgent = "!"
			}
			deadline := "never"
			if entry.AutoApproveAt != nil {
				deadline = entry.AutoApproveAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				entry.ID, entry.ChannelID, entry.ActionRef, entry.Priority,
				urgent, deadline, entry.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
		return nil
	},
}

var approvalApproveCmd = &cobra.Command{
	Use:   "approve [approval-id...]",
	Short: "Approve one or more pending entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		approvedBy, _ := cmd.Flags().GetString("by")
		reason, _ := cmd.Flags().GetString("reason")

		n, err := wire.ApprovalService().BulkApprove(ctx, primary.BulkApproveRequest{
			IDs:        args,
			ApprovedBy: approvedBy,
			Reason:     reason,
		})
		if err != nil {
			return fmt.Errorf("failed to approve: %w", err)
		}

		fmt.Printf("✓ Approved %d of %d entries\n", n, len(args))
		if n < len(args) {
			fmt.Println("  Entries already decided were left untouched.")
		}
		return nil
	},
}

var approvalRejectCmd = &cobra.Command{
	Use:   "reject [approval-id]",
	Short: "Reject a pending entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		rejectedBy, _ := cmd.Flags().GetString("by")
		reason, _ := cmd.Flags().GetString("reason")

		if err := wire.ApprovalService().Reject(ctx, args[0], rejectedBy, reason); err != nil {
			return fmt.Errorf("failed to reject: %w", err)
		}

		fmt.Printf("✓ Rejected %s\n", args[0])
		return nil
	},
}

var approvalSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Auto-approve entries past their deadline",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := wire.ApprovalService().AutoApproveExpired(context.Background())
		if err != nil {
			return fmt.Errorf("failed to sweep approvals: %w", err)
		}

		if n == 0 {
			fmt.Println("No entries past their deadline.")
			return nil
		}
		fmt.Printf("✓ Auto-approved %d entries\n", n)
		return nil
	},
}

func init() {
	// approval list flags
	approvalListCmd.Flags().String("channel", "", "Filter by channel ID")
	approvalListCmd.Flags().Int("limit", 50, "Maximum entries to show")

	// approve/reject flags
	approvalApproveCmd.Flags().String("by", "", "Approver identity")
	approvalApproveCmd.Flags().String("reason", "", "Approval note")
	approvalRejectCmd.Flags().String("by", "", "Reviewer identity")
	approvalRejectCmd.Flags().String("reason", "", "Rejection reason")

	// Register subcommands
	approvalCmd.AddCommand(approvalListCmd)
	approvalCmd.AddCommand(approvalApproveCmd)
	approvalCmd.AddCommand(approvalRejectCmd)
	approvalCmd.AddCommand(approvalSweepCmd)
}

// ApprovalCmd returns the approval command
func ApprovalCmd() *cobra.Command {
	return approvalCmd
}
