package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/config"
	"github.com/veerababu74/spunkads/pkg/export"
	"github.com/veerababu74/spunkads/pkg/extract"
	"github.com/veerababu74/spunkads/pkg/report"
	"github.com/veerababu74/spunkads/pkg/revenue"
	"github.com/veerababu74/spunkads/pkg/session"
	"github.com/veerababu74/spunkads/pkg/storage"
	"github.com/veerababu74/spunkads/pkg/timewindow"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract broadcasts for all active pages and build merged reports",
	Long: `Extracts broadcast history for every active page in the roster, one page
at a time, fetches the revenue feed once, reconciles the two, and writes
detailed + summary reports to CSV. Optionally saves the run to SQLite and
uploads the reports to the configured sheet webhook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		windowMode, _ := cmd.Flags().GetString("window")
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		if windowMode == "" {
			windowMode = cfg.Window.Mode
			startStr = cfg.Window.Start
			endStr = cfg.Window.End
		}
		window, err := timewindow.FromConfig(windowMode, cfg.Window.Specific, startStr, endStr)
		if err != nil {
			return err
		}
		utils.Log.Info("Extraction window: ", window.String())

		maxPages, _ := cmd.Flags().GetInt("max-pages")
		pageDelay, _ := cmd.Flags().GetDuration("page-delay")
		runner := &extract.Runner{
			Provider:  session.NewBridge(cfg.Bridge.URL),
			MaxPages:  maxPages,
			PageDelay: pageDelay,
		}

		pages := cfg.ActivePages()
		started := time.Now()
		results := runner.RunAll(cmd.Context(), pages, window, cfg.Excluded)

		extracted := 0
		for _, res := range results {
			extracted += len(res.Posts)
		}
		utils.Log.Info("Extracted ", extracted, " broadcasts from ", len(results),
			" pages in ", time.Since(started).Round(time.Second))

		// One feed call per run. If it fails the report still goes out,
		// carrying zeroed attributions for every page.
		perName, pseudo := fetchAndReconcile(cfg, pages)

		detailed := report.BuildDetailed(pages, results)
		summary := report.BuildSummary(pages, results, perName, pseudo, report.Options{
			IncludeZeroRevenue: cfg.Output.IncludeZeroRevenue,
		})

		csvDir, _ := cmd.Flags().GetString("csv-dir")
		if csvDir == "" {
			csvDir = cfg.Output.CSVDir
		}
		label := window.Label()
		detailedPath, err := export.WriteDetailedCSV(csvDir, label, detailed)
		if err != nil {
			return fmt.Errorf("write detailed csv: %w", err)
		}
		summaryPath, err := export.WriteSummaryCSV(csvDir, label, summary)
		if err != nil {
			return fmt.Errorf("write summary csv: %w", err)
		}
		fmt.Println("Detailed CSV:", detailedPath)
		fmt.Println("Summary CSV: ", summaryPath)

		if save, _ := cmd.Flags().GetBool("db"); save {
			if err := saveRun(cmd, cfg, detailed, summary); err != nil {
				utils.Log.Error("Saving run to database: ", err)
			}
		}

		if upload, _ := cmd.Flags().GetBool("upload"); upload {
			wh := &export.Webhook{URL: cfg.Output.WebhookURL, Delay: 2 * time.Second}
			if err := wh.UploadDetailed(cfg.Output.DetailedSheet, detailed); err != nil {
				utils.Log.Error("Uploading detailed rows: ", err)
			}
			if err := wh.UploadSummary(cfg.Output.SummarySheet, summary); err != nil {
				utils.Log.Error("Uploading summary rows: ", err)
			}
		}

		return nil
	},
}

func fetchAndReconcile(cfg *config.Config, pages []config.Page) (map[string]revenue.Attribution, map[string]revenue.Attribution) {
	client := &revenue.Client{
		URL:    cfg.Revenue.URL,
		UserID: cfg.Revenue.UserID,
		APIKey: cfg.Revenue.APIKey,
	}
	feed, err := client.Fetch()
	if err != nil {
		utils.Log.Error("Revenue feed unavailable, reporting zeroes: ", err)
		return revenue.ZeroAttributions(pages), nil
	}
	return revenue.Reconcile(pages, feed)
}

func saveRun(cmd *cobra.Command, cfg *config.Config, detailed []report.DetailedRow, summary []report.SummaryRow) error {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = cfg.Output.DBPath
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := uuid.NewString()
	if err := db.SaveRun(context.Background(), runID, detailed, summary); err != nil {
		return err
	}
	utils.Log.Info("Saved run ", runID, " to ", dbPath)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("window", "w", "", "Date window: all, today, yesterday, last_7_days, last_30_days, specific_date, date_range (default from config)")
	runCmd.Flags().String("start", "", "Window start date (YYYY-MM-DD, date_range only)")
	runCmd.Flags().String("end", "", "Window end date (YYYY-MM-DD, date_range only)")
	runCmd.Flags().Int("max-pages", 25, "Maximum history pages to fetch per page")
	runCmd.Flags().Duration("page-delay", 2*time.Second, "Delay between pages of the roster")
	runCmd.Flags().String("csv-dir", "", "Directory for CSV output (default from config)")
	runCmd.Flags().Bool("db", false, "Save the run to the SQLite database")
	runCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config)")
	runCmd.Flags().Bool("upload", false, "Upload reports to the configured sheet webhook")
}
