package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minishield-dashboard/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend subsystem health",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := application.Status.Fetch(cmd.Context())
		if err != nil {
			return friendly(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPONENT\tSTATUS\tCPU\tMEMORY\tNETWORK")
		printComponent(w, "gateway", status.Gateway)
		printComponent(w, "database", status.Database)
		printComponent(w, "ml_scorer", status.MLScorer)
		return w.Flush()
	},
}

func printComponent(w *tabwriter.Writer, name string, c core.ComponentStatus) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, c.Status, c.CPU, c.Memory, c.Network)
}
