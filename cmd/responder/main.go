package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/cli"
	"github.com/example/responder/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "responder",
		Short:   "Responder - automated response orchestration",
		Version: version.String(),
		Long: `Responder polls platform channels for new interactions, matches them
against prioritized automation rules, and executes rate-limited respond,
delete and flag actions with A/B testing and human approval gates.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.DaemonCmd())
	rootCmd.AddCommand(cli.ChannelCmd())
	rootCmd.AddCommand(cli.RuleCmd())
	rootCmd.AddCommand(cli.QueueCmd())
	rootCmd.AddCommand(cli.ApprovalCmd())
	rootCmd.AddCommand(cli.ReportCmd())
	rootCmd.AddCommand(cli.CycleCmd())
	rootCmd.AddCommand(cli.PollCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
