package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/veerababu74/spunkads/pkg/storage"
)

var dbPath string

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the spunkads database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Parent().Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "spunkads.sqlite"
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the broadcasts stored in the database.",
	Long:  "Prints statistics about the broadcasts stored in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Parent().Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "spunkads.sqlite"
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("database file not found: %s", dbPath)
			}
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "PAGE\tBROADCASTS\tRUNS\t")

		var totalBroadcasts int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.PageName, s.Broadcasts, s.Runs)
			totalBroadcasts += s.Broadcasts
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t\n", totalBroadcasts)

		w.Flush()

		return nil
	},
}

// recentCmd represents the recent command
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recently stored page summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Parent().Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "spunkads.sqlite"
		}
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		recs, err := db.ListSummaries(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No summaries stored yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "STORED\tPAGE\tCAMPAIGNS\tSENT\tREVENUE\tACCOUNT\t")
		for _, rec := range recs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t\n",
				rec.CreatedAt.Format("2006-01-02 15:04"), rec.Row.PageName,
				rec.Row.Campaigns, rec.Row.Sent, rec.Row.Revenue, rec.Row.AccountName)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(recentCmd)
	dbCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "spunkads.sqlite", "Path to SQLite DB file")
	recentCmd.Flags().Int("limit", 20, "Maximum rows to show")
}
