package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minishield-dashboard/internal/core"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Manage protected domains",
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Domains.Refresh(cmd.Context()); err != nil {
			return friendly(err)
		}

		domains := application.Domains.Domains()
		if len(domains) == 0 {
			fmt.Println("no domains yet; add one with 'dashboard domains add <name>'")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tNAMESERVERS\tCREATED")
		for _, d := range domains {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.Name, d.Status,
				strings.Join(d.Nameservers, ","),
				d.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var domainsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a domain (starts pending verification)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := application.Domains.Add(cmd.Context(), args[0])
		if err != nil {
			return friendly(err)
		}
		fmt.Printf("added %s (%s)\n", created.Name, created.ID)
		fmt.Println("point the domain at these nameservers, then run 'dashboard domains verify':")
		for _, ns := range created.Nameservers {
			fmt.Printf("  %s\n", ns)
		}
		return nil
	},
}

var domainsVerifyCmd = &cobra.Command{
	Use:   "verify <domain-id>",
	Short: "Check nameserver delegation and activate the domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.Domains.Verify(cmd.Context(), args[0])
		if err != nil {
			return friendly(err)
		}
		fmt.Println(res.Message)
		return nil
	},
}

var dnsCmd = &cobra.Command{
	Use:   "dns",
	Short: "Manage DNS records of a domain",
}

var (
	dnsName    string
	dnsType    string
	dnsContent string
	dnsTTL     int
	dnsProxied bool
)

var dnsListCmd = &cobra.Command{
	Use:   "list <domain-id>",
	Short: "List DNS records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Domains.Refresh(cmd.Context()); err != nil {
			return friendly(err)
		}
		records, err := application.Domains.Records(cmd.Context(), args[0])
		if err != nil {
			return friendly(err)
		}
		if len(records) == 0 {
			fmt.Println("no records")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tCONTENT\tTTL\tPROXIED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\n", r.ID, r.Name, r.Type, r.Content, r.TTL, r.Proxied)
		}
		return w.Flush()
	},
}

var dnsAddCmd = &cobra.Command{
	Use:   "add <domain-id>",
	Short: "Create a DNS record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Domains.Refresh(cmd.Context()); err != nil {
			return friendly(err)
		}
		in := core.DNSRecordInput{
			DomainID: args[0],
			Name:     dnsName,
			Type:     dnsType,
			Content:  dnsContent,
			TTL:      dnsTTL,
			Proxied:  dnsProxied,
		}
		if err := application.Domains.AddRecord(cmd.Context(), in); err != nil {
			return friendly(err)
		}
		return nil
	},
}

var dnsDeleteCmd = &cobra.Command{
	Use:   "delete <domain-id> <record-id>",
	Short: "Delete a DNS record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Domains.DeleteRecord(cmd.Context(), args[0], args[1]); err != nil {
			return friendly(err)
		}
		return nil
	},
}

func init() {
	domainsCmd.AddCommand(domainsListCmd)
	domainsCmd.AddCommand(domainsAddCmd)
	domainsCmd.AddCommand(domainsVerifyCmd)

	dnsAddCmd.Flags().StringVar(&dnsName, "name", "@", "Record name (\"@\" for root)")
	dnsAddCmd.Flags().StringVar(&dnsType, "type", "A", "Record type (A, AAAA, CNAME, MX, TXT, NS)")
	dnsAddCmd.Flags().StringVar(&dnsContent, "content", "", "Record content (IP or target)")
	dnsAddCmd.Flags().IntVar(&dnsTTL, "ttl", 0, "TTL in seconds (0 = server default)")
	dnsAddCmd.Flags().BoolVar(&dnsProxied, "proxied", true, "Route traffic through the WAF")
	_ = dnsAddCmd.MarkFlagRequired("content")

	dnsCmd.AddCommand(dnsListCmd)
	dnsCmd.AddCommand(dnsAddCmd)
	dnsCmd.AddCommand(dnsDeleteCmd)
}
