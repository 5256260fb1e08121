package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/scheduler"
	"github.com/example/responder/internal/wire"
)

// DaemonCmd returns the daemon command
func DaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the polling, automation and approval-sweep loops",
		Long: `Run the three background loops until interrupted:

- polling: ingest new platform interactions into the queue
- automation: match rules against pending items and execute actions
- approval sweep: auto-approve entries past their deadline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Cfg()
			logger := wire.Logger()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			loops := []*scheduler.Scheduler{
				scheduler.New("poller", cfg.Scheduler.PollInterval.Std(), func(ctx context.Context) error {
					return wire.Poller().RunTick(ctx)
				}, logger),
				scheduler.New("automation", cfg.Scheduler.AutomationInterval.Std(), func(ctx context.Context) error {
					return wire.Engine().RunCycle(ctx)
				}, logger),
				scheduler.New("approval-sweep", cfg.Scheduler.SweepInterval.Std(), func(ctx context.Context) error {
					_, err := wire.ApprovalService().AutoApproveExpired(ctx)
					return err
				}, logger),
			}

			for _, loop := range loops {
				loop.Start(ctx)
			}
			logger.Info("daemon started",
				"pollInterval", cfg.Scheduler.PollInterval.Std(),
				"automationInterval", cfg.Scheduler.AutomationInterval.Std(),
				"sweepInterval", cfg.Scheduler.SweepInterval.Std(),
			)

			<-ctx.Done()
			logger.Info("shutting down")
			for _, loop := range loops {
				loop.Stop()
			}
			logger.Info("daemon stopped")
			return nil
		},
	}
}
