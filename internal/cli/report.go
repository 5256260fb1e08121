package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/responder/internal/wire"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analytics read-outs",
	Long:  "Performance rankings, anomaly detection, ROI estimates and A/B test significance",
}

var reportPerformanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Rank rules by CTR over a rolling window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		days, _ := cmd.Flags().GetInt("days")

		report, err := wire.ReportService().Performance(ctx, days)
		if err != nil {
			return fmt.Errorf("failed to build performance report: %w", err)
		}

		if len(report.Rules) == 0 {
			fmt.Println("No response activity in the window.")
			return nil
		}

		fmt.Printf("Rule performance, last %d day(s):\n\n", report.WindowDays)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tRESPONSES\tCONVERSIONS\tCTR\tENGAGEMENT")
		fmt.Fprintln(w, "----\t---------\t-----------\t---\t----------")
		for _, r := range report.Rules {
			id := r.RuleID
			switch id {
			case report.Best:
				id = color.New(color.FgGreen).Sprint(id)
			case report.Worst:
				id = color.New(color.FgRed).Sprint(id)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.3f\n",
				id, r.Responses, r.Conversions, r.CTR, r.Engagement)
		}
		w.Flush()

		fmt.Println()
		fmt.Printf("Best: %s  Worst: %s\n",
			color.New(color.FgGreen).Sprint(report.Best),
			color.New(color.FgRed).Sprint(report.Worst))
		return nil
	},
}

var reportAnomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Flag rules whose latest CTR broke from the trailing mean",
	RunE: func(cmd *cobra.Command, args []string) error {
		anomalies, err := wire.ReportService().Anomalies(context.Background())
		if err != nil {
			return fmt.Errorf("failed to detect anomalies: %w", err)
		}

		if len(anomalies) == 0 {
			fmt.Println(color.New(color.FgGreen).Sprint("✓") + " No anomalies detected.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tDAY\tCTR\tTRAILING MEAN\tDEVIATION")
		fmt.Fprintln(w, "----\t---\t---\t-------------\t---------")
		for _, a := range anomalies {
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%s\n",
				color.New(color.FgRed).Sprint(a.RuleID), a.Day, a.CTR, a.TrailingMean,
				color.New(color.FgRed).Sprintf("%.0f%%", a.Deviation*100))
		}
		w.Flush()
		return nil
	},
}

var reportROICmd = &cobra.Command{
	Use:   "roi",
	Short: "Estimate return on investment of automated responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		report, err := wire.ReportService().ROI(context.Background(), days)
		if err != nil {
			return fmt.Errorf("failed to compute ROI: %w", err)
		}

		fmt.Printf("ROI estimate, last %d day(s):\n\n", days)
		fmt.Printf("Automated responses: %d\n", report.Responses)
		fmt.Printf("Hours saved:         %.1f (at %.0fs per manual reply)\n", report.HoursSaved, report.SecondsPerManual)
		fmt.Printf("Labor value:         $%.2f (at $%.2f/h)\n", report.LaborValue, report.HourlyRate)
		fmt.Printf("Automation cost:     $%.2f (at $%.2f per response)\n", report.AutomationCost, report.CostPerResponse)

		net := fmt.Sprintf("$%.2f", report.Net)
		if report.Net >= 0 {
			net = color.New(color.FgGreen).Sprint(net)
		} else {
			net = color.New(color.FgRed).Sprint(net)
		}
		fmt.Printf("Net:                 %s\n", net)
		return nil
	},
}

var reportSignificanceCmd = &cobra.Command{
	Use:   "significance [rule-id]",
	Short: "Run the winner calculation for one rule's A/B tests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := wire.ReportService().Significance(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to evaluate significance: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No A/B test data for this rule.")
			return nil
		}

		for _, r := range results {
			fmt.Printf("Test %s:\n", r.TestID)
			if r.Winner == "" {
				fmt.Printf("  No winner: %s\n", r.Reason)
			} else {
				fmt.Printf("  Winner: %s over %s (p=%.4f, metric=%s)\n",
					color.New(color.FgGreen).Sprint(r.Winner), r.RunnerUp, r.PValue, r.Metric)
			}
			if r.Suggestion != "" {
				fmt.Printf("  Suggestion: %s\n", color.New(color.FgYellow).Sprint(r.Suggestion))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	// window flags
	reportPerformanceCmd.Flags().Int("days", 30, "Window size in days")
	reportROICmd.Flags().Int("days", 30, "Window size in days")

	// Register subcommands
	reportCmd.AddCommand(reportPerformanceCmd)
	reportCmd.AddCommand(reportAnomaliesCmd)
	reportCmd.AddCommand(reportROICmd)
	reportCmd.AddCommand(reportSignificanceCmd)
}

// ReportCmd returns the report command
func ReportCmd() *cobra.Command {
	return reportCmd
}
