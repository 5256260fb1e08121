package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/wire"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage automation rules",
	Long:  "Create, list, inspect, enable and optimize automation rules",
}

var ruleCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		channelID, _ := cmd.Flags().GetString("channel")
		priority, _ := cmd.Flags().GetInt("priority")
		actionType, _ := cmd.Flags().GetString("type")
		conditionsJSON, _ := cmd.Flags().GetString("conditions")
		configJSON, _ := cmd.Flags().GetString("config")
		testsJSON, _ := cmd.Flags().GetString("ab-tests")
		limit, _ := cmd.Flags().GetInt("limit")
		requireApproval, _ := cmd.Flags().GetBool("require-approval")

		var conditions models.Conditions
		if conditionsJSON != "" {
			if err := json.Unmarshal([]byte(conditionsJSON), &conditions); err != nil {
				return fmt.Errorf("failed to parse conditions: %w", err)
			}
		}

		action, err := models.DecodeActionConfig(models.ActionType(actionType), []byte(configJSON))
		if err != nil {
			return err
		}

		var tests map[string][]models.Variant
		if testsJSON != "" {
			if err := json.Unmarshal([]byte(testsJSON), &tests); err != nil {
				return fmt.Errorf("failed to parse A/B tests: %w", err)
			}
		}

		rule, err := wire.RuleService().CreateRule(ctx, primary.CreateRuleRequest{
			ChannelID:           channelID,
			Name:                args[0],
			Priority:            priority,
			Conditions:          conditions,
			ActionType:          models.ActionType(actionType),
			Action:              action,
			ResponseLimitPerRun: limit,
			RequireApproval:     requireApproval,
			ABTests:             tests,
		})
		if err != nil {
			return fmt.Errorf("failed to create rule: %w", err)
		}

		fmt.Printf("✓ Created rule %s: %s (%s, priority %d)\n", rule.ID, rule.Name, rule.ActionType, rule.Priority)
		return nil
	},
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		channelID, _ := cmd.Flags().GetString("channel")

		rules, err := wire.RuleService().ListRules(ctx, channelID)
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		if len(rules) == 0 {
			fmt.Println("No rules found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCHANNEL\tPRIORITY\tTYPE\tENABLED\tNAME")
		fmt.Fprintln(w, "--\t-------\t--------\t----\t-------\t----")
		for _, rule := range rules {
			enabled := "no"
			if rule.Enabled {
				enabled = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				rule.ID, rule.ChannelID, rule.Priority, rule.ActionType, enabled, rule.Name)
		}
		w.Flush()
		return nil
	},
}

var ruleShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show rule details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rule, err := wire.RuleService().GetRule(ctx, args[0])
		if err != nil {
			return fmt.Errorf("rule not found: %w", err)
		}

		fmt.Printf("Rule: %s (%s)\n", rule.Name, rule.ID)
		fmt.Printf("Channel: %s\n", rule.ChannelID)
		fmt.Printf("Priority: %d\n", rule.Priority)
		fmt.Printf("Action: %s\n", rule.ActionType)
		fmt.Printf("Enabled: %t\n", rule.Enabled)
		fmt.Printf("Require approval: %t\n", rule.RequireApproval)
		if rule.ResponseLimitPerRun > 0 {
			fmt.Printf("Per-run limit: %d\n", rule.ResponseLimitPerRun)
		}
		if !rule.Conditions.Empty() {
			raw, _ := json.Marshal(rule.Conditions)
			fmt.Printf("Conditions: %s\n", raw)
		}
		for testID, variants := range rule.ABTests {
			fmt.Printf("Test %s:\n", testID)
			for _, v := range variants {
				fmt.Printf("  %s weight=%.2f", v.ID, v.Weight)
				if v.TemplateRef != "" {
					fmt.Printf(" template=%s", v.TemplateRef)
				}
				fmt.Println()
			}
		}
		fmt.Printf("Created: %s\n", rule.CreatedAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var ruleEnableCmd = &cobra.Command{
	Use:   "enable [rule-id]",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.RuleService().SetEnabled(context.Background(), args[0], true); err != nil {
			return fmt.Errorf("failed to enable rule: %w", err)
		}
		fmt.Printf("✓ Enabled rule %s\n", args[0])
		return nil
	},
}

var ruleDisableCmd = &cobra.Command{
	Use:   "disable [rule-id]",
	Short: "Disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.RuleService().SetEnabled(context.Background(), args[0], false); err != nil {
			return fmt.Errorf("failed to disable rule: %w", err)
		}
		fmt.Printf("✓ Disabled rule %s\n", args[0])
		return nil
	},
}

var ruleOptimizeCmd = &cobra.Command{
	Use:   "optimize [rule-id]",
	Short: "Reweight the rule's A/B tests from accumulated results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changed, err := wire.Optimizer().AutoOptimize(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to optimize rule: %w", err)
		}
		if !changed {
			fmt.Println("No significant result yet; weights unchanged.")
			return nil
		}
		fmt.Printf("✓ Updated test weights for rule %s\n", args[0])
		return nil
	},
}

func init() {
	// rule create flags
	ruleCreateCmd.Flags().String("channel", "", "Channel ID the rule applies to")
	ruleCreateCmd.Flags().Int("priority", 0, "Match priority (higher wins)")
	ruleCreateCmd.Flags().String("type", "respond", "Action type (respond|delete|flag)")
	ruleCreateCmd.Flags().String("conditions", "", "Match conditions as JSON")
	ruleCreateCmd.Flags().String("config", "{}", "Action configuration as JSON")
	ruleCreateCmd.Flags().String("ab-tests", "", "A/B test definitions as JSON")
	ruleCreateCmd.Flags().Int("limit", 0, "Per-run execution cap (0 = unlimited)")
	ruleCreateCmd.Flags().Bool("require-approval", false, "Queue responses for human approval")

	// rule list flags
	ruleListCmd.Flags().String("channel", "", "Filter by channel ID")

	// Register subcommands
	ruleCmd.AddCommand(ruleCreateCmd)
	ruleCmd.AddCommand(ruleListCmd)
	ruleCmd.AddCommand(ruleShowCmd)
	ruleCmd.AddCommand(ruleEnableCmd)
	ruleCmd.AddCommand(ruleDisableCmd)
	ruleCmd.AddCommand(ruleOptimizeCmd)
}

// RuleCmd returns the rule command
func RuleCmd() *cobra.Command {
	return ruleCmd
}
