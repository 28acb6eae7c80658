package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change dashboard settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the effective backend address",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := application.Client.BaseURL(cmd.Context())
		if url == "" {
			fmt.Println("api-url: (not configured)")
			return nil
		}
		fmt.Printf("api-url: %s\n", url)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set api-url <url>",
	Short: "Persist the backend base address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "api-url" {
			return fmt.Errorf("unknown setting %q (only api-url is supported)", args[0])
		}
		if err := application.SetAPIURL(cmd.Context(), args[1]); err != nil {
			return err
		}
		fmt.Printf("api-url set to %s\n", args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
