package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minishield-dashboard/internal/core"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage firewall rules",
}

var rulesDomainID string

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List global and custom rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Rules.Refresh(cmd.Context(), rulesDomainID); err != nil {
			return friendly(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSET\tNAME\tCONDITIONS\tON MATCH\tENABLED")
		for _, r := range application.Rules.Global() {
			printRule(w, "global", r)
		}
		for _, r := range application.Rules.Custom() {
			printRule(w, "custom", r)
		}
		return w.Flush()
	},
}

func printRule(w *tabwriter.Writer, set string, r core.Rule) {
	conds := make([]string, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		conds = append(conds, fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value))
	}
	action := fmt.Sprintf("score+%d", r.OnMatch.ScoreAdd)
	if r.OnMatch.HardBlock {
		action = "hard block"
	}
	if len(r.OnMatch.Tags) > 0 {
		action += " [" + strings.Join(r.OnMatch.Tags, ",") + "]"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", r.ID, set, r.Name, strings.Join(conds, " AND "), action, r.Enabled)
}

var (
	ruleName       string
	ruleConditions []string
	ruleScoreAdd   int
	ruleTags       []string
	ruleHardBlock  bool
)

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a custom rule",
	Long: `Create a custom rule. Conditions use field:operator:value syntax and
are ANDed together:

  dashboard rules add --name "block admin probes" \
    --condition path:contains:/admin \
    --condition header:regex:'sqlmap|nikto' \
    --score 10 --tag probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conditions, err := parseConditions(ruleConditions)
		if err != nil {
			return err
		}
		in := core.RuleInput{
			Name:       ruleName,
			Conditions: conditions,
			OnMatch: core.MatchAction{
				ScoreAdd:  ruleScoreAdd,
				Tags:      ruleTags,
				HardBlock: ruleHardBlock,
			},
		}
		if err := application.Rules.AddCustom(cmd.Context(), in); err != nil {
			return friendly(err)
		}
		return nil
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <rule-id>",
	Short: "Delete a custom rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Rules.DeleteCustom(cmd.Context(), args[0]); err != nil {
			return friendly(err)
		}
		return nil
	},
}

var toggleEnable bool

var rulesToggleCmd = &cobra.Command{
	Use:   "toggle <rule-id>",
	Short: "Enable or disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := core.ToggleInput{
			RuleID:   args[0],
			DomainID: rulesDomainID,
			Enabled:  toggleEnable,
		}
		if err := application.Rules.Toggle(cmd.Context(), in); err != nil {
			return friendly(err)
		}
		state := "disabled"
		if toggleEnable {
			state = "enabled"
		}
		fmt.Printf("rule %s %s\n", args[0], state)
		return nil
	},
}

// parseConditions turns field:operator:value triples into typed conditions.
// The value may itself contain colons (regex patterns, URLs).
func parseConditions(raw []string) ([]core.Condition, error) {
	out := make([]core.Condition, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid condition %q (want field:operator:value)", s)
		}
		out = append(out, core.Condition{Field: parts[0], Operator: parts[1], Value: parts[2]})
	}
	return out, nil
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesDomainID, "domain", "", "Scope to one domain id")

	rulesAddCmd.Flags().StringVar(&ruleName, "name", "", "Rule name")
	rulesAddCmd.Flags().StringArrayVar(&ruleConditions, "condition", nil, "Condition as field:operator:value (repeatable)")
	rulesAddCmd.Flags().IntVar(&ruleScoreAdd, "score", 0, "Score added on match (0-100)")
	rulesAddCmd.Flags().StringSliceVar(&ruleTags, "tag", nil, "Tag applied on match (repeatable)")
	rulesAddCmd.Flags().BoolVar(&ruleHardBlock, "hard-block", false, "Reject matching requests outright")
	_ = rulesAddCmd.MarkFlagRequired("name")
	_ = rulesAddCmd.MarkFlagRequired("condition")

	rulesToggleCmd.Flags().BoolVar(&toggleEnable, "enabled", true, "Target state")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rulesCmd.AddCommand(rulesToggleCmd)
}
