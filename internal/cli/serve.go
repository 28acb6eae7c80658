package cli

import (
	"github.com/spf13/cobra"

	"minishield-dashboard/internal/notify"
	"minishield-dashboard/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web facade",
	Long: `Serve the dashboard state over a local HTTP API: JSON endpoints for
domains, rules, logs and session, a live attack-event relay at
/api/logs/stream, and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Swap the notifier for a buffer so transient messages reach the
		// browser via /api/notifications instead of stderr.
		toasts := notify.NewBuffer(100)
		application.Notifier.Set(toasts)

		srv := web.NewServer(application, toasts, application.Log.WithPrefix("web"))
		return srv.ListenAndServe()
	},
}
