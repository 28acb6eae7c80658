package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minishield-dashboard/internal/controller"
	"minishield-dashboard/internal/core"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect attack logs",
}

var (
	logPage          int64
	logLimit         int64
	logFilterIP      string
	logFilterAction  string
	logFilterSource  string
	logFilterPath    string
	logFilterDomain  string
	logMinScore      int
	logMinConfidence float64
)

func logFilters() controller.LogFilters {
	return controller.LogFilters{
		IP:            logFilterIP,
		Action:        logFilterAction,
		Source:        logFilterSource,
		Path:          logFilterPath,
		DomainID:      logFilterDomain,
		MinScore:      logMinScore,
		MinConfidence: logMinConfidence,
	}
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch one page of historical attack logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if logLimit > 0 {
			if err := application.Logs.SetPerPage(ctx, logLimit); err != nil {
				return friendly(err)
			}
		}
		if err := application.Logs.SetFilters(ctx, logFilters()); err != nil {
			return friendly(err)
		}
		if logPage > 1 {
			if err := application.Logs.SetPage(ctx, logPage); err != nil {
				return friendly(err)
			}
		}

		snap := application.Logs.Snapshot()
		if len(snap.Entries) == 0 {
			fmt.Println("no attack logs found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tIP\tPATH\tREASON\tACTION\tSOURCE\tSCORE\tCONFIDENCE")
		for _, e := range snap.Entries {
			printLog(w, e)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("page %d of %d (%d events)\n",
			snap.Pagination.CurrentPage, snap.Pagination.TotalPages, snap.Pagination.TotalItems)
		return nil
	},
}

var logsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream attack events live (Ctrl-C to stop)",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		err := application.Stream.Open(cmd.Context(), func(ev core.AttackLog) {
			printLog(w, ev)
			w.Flush()
		})
		if err != nil {
			return friendly(err)
		}
		defer application.Stream.Close()

		fmt.Fprintln(os.Stderr, "streaming attack events; Ctrl-C to stop")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func printLog(w *tabwriter.Writer, e core.AttackLog) {
	confidence := "N/A"
	if e.Confidence > 0 {
		confidence = fmt.Sprintf("%.0f%%", e.Confidence*100)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
		e.Timestamp.Format("15:04:05"), e.IP, e.Path, e.Reason, e.Action, e.Source, e.Score, confidence)
}

func init() {
	logsListCmd.Flags().Int64Var(&logPage, "page", 1, "Page number")
	logsListCmd.Flags().Int64Var(&logLimit, "limit", 0, "Page size (default 50)")
	logsListCmd.Flags().StringVar(&logFilterIP, "ip", "", "Filter by client IP")
	logsListCmd.Flags().StringVar(&logFilterAction, "action", "", "Filter by action (Blocked, Flagged)")
	logsListCmd.Flags().StringVar(&logFilterSource, "source", "", "Filter by source (Rule Engine, ML Engine, Hybrid)")
	logsListCmd.Flags().StringVar(&logFilterPath, "path", "", "Filter by request path substring")
	logsListCmd.Flags().StringVar(&logFilterDomain, "domain", "", "Filter by domain id")
	logsListCmd.Flags().IntVar(&logMinScore, "min-score", 0, "Minimum threat score (0-100)")
	logsListCmd.Flags().Float64Var(&logMinConfidence, "min-confidence", 0, "Minimum ML confidence (0.0-1.0)")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsTailCmd)
}
