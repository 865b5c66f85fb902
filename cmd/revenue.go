package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/veerababu74/spunkads/pkg/config"
	"github.com/veerababu74/spunkads/pkg/report"
	"github.com/veerababu74/spunkads/pkg/revenue"
)

// revenueCmd represents the revenue command
var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Fetch the revenue feed and reconcile it against the page roster",
	Long: `Fetches the revenue feed once and prints the per-page rollup without
running an extraction. Sources the feed reports that no configured page
matches are listed separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		client := &revenue.Client{
			URL:    cfg.Revenue.URL,
			UserID: cfg.Revenue.UserID,
			APIKey: cfg.Revenue.APIKey,
		}
		feed, err := client.Fetch()
		if err != nil {
			return err
		}

		pages := cfg.ActivePages()
		perName, pseudo := revenue.Reconcile(pages, feed)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "PAGE\tREVENUE\tDATE\tOFFER\tCONVERSIONS\tCLICKS\tLEADS\tROWS\t")
		for _, pg := range pages {
			a := perName[pg.Name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t\n",
				a.Key, a.Revenue, a.FirstDate, a.Offer, a.Conversions, a.Clicks, a.Leads, a.RowCount)
		}

		if len(pseudo) > 0 {
			tags := make([]string, 0, len(pseudo))
			for tag := range pseudo {
				tags = append(tags, tag)
			}
			sort.Strings(tags)
			fmt.Fprintln(w, " \t \t \t \t \t \t \t \t")
			for _, tag := range tags {
				a := pseudo[tag]
				fmt.Fprintf(w, "%s (%s)\t%s\t%s\t\t\t\t\t%d\t\n",
					a.Key, report.FeedOnlyAccount, a.Revenue, a.FirstDate, a.RowCount)
			}
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(revenueCmd)
}
