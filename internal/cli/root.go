// Package cli implements the dashboard command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"minishield-dashboard/internal/app"
)

// Version is injected via ldflags at build time.
var Version = "dev"

// application is the dependency context built once per invocation.
var application *app.App

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "MiniShield WAF admin dashboard",
	Long: `dashboard is the MiniShield WAF admin client: manage domains, DNS
records and firewall rules, watch attack logs live, and check backend
health, all against a remote MiniShield gateway.

The backend address is read from MINISHIELD_API_URL or from the persisted
setting written by 'dashboard config set api-url'.

Examples:
  dashboard config set api-url https://waf.example.com
  dashboard login --email admin@example.com
  dashboard domains list
  dashboard logs tail
  dashboard serve                # local web facade with live stream relay
`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		application, err = app.New(app.Options{})
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		return application.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(dnsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(serveCmd)
}
