package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/config"
	"github.com/example/responder/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate responder configuration and database health",
		Long: `Health check for the responder environment.

Validates:
- Config file parses (or defaults apply)
- Database opens and carries the expected schema
- External service URLs are configured

Examples:
  responder doctor            # Run full health check
  responder doctor --quiet    # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgResult := checkConfig()

			results := []CheckResult{cfgResult}
			results = append(results, checkDatabase(cfg))
			results = append(results, checkServices(cfg)...)

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n  %s\n", r.Name, r.Details)
					}
				}
			}

			if hasErrors {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress output, exit code only")
	return cmd
}

func checkConfig() (config.Config, CheckResult) {
	cfg, err := config.Load()
	if err != nil {
		return config.Default(), CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: err.Error(),
		}
	}
	return cfg, CheckResult{Name: "Config", Status: "✓"}
}

func checkDatabase(cfg config.Config) CheckResult {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: err.Error()}
	}

	// A missing table means init was never run or the schema is stale.
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM channels").Scan(&n); err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: fmt.Sprintf("schema check failed, run 'responder init': %v", err),
		}
	}
	return CheckResult{Name: "Database", Status: "✓"}
}

func checkServices(cfg config.Config) []CheckResult {
	urls := []struct {
		name string
		url  string
	}{
		{"Source URL", cfg.Services.SourceURL},
		{"Classifier URL", cfg.Services.ClassifierURL},
		{"Renderer URL", cfg.Services.RendererURL},
		{"Moderation URL", cfg.Services.ModerationURL},
	}

	results := make([]CheckResult, 0, len(urls)+1)
	for _, u := range urls {
		if u.url == "" {
			results = append(results, CheckResult{
				Name:    u.name,
				Status:  "⚠",
				Details: "not configured; the daemon cannot reach this collaborator",
			})
			continue
		}
		results = append(results, CheckResult{Name: u.name, Status: "✓"})
	}

	// NotifyURL is optional: absent means urgent approvals go to the log.
	if cfg.Services.NotifyURL == "" {
		results = append(results, CheckResult{
			Name:    "Notify URL",
			Status:  "⚠",
			Details: "not configured; urgent approvals are logged instead of pushed",
		})
	} else {
		results = append(results, CheckResult{Name: "Notify URL", Status: "✓"})
	}

	return results
}
