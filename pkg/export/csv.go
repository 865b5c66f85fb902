package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/report"
)

// Column orders are fixed: downstream sheets are consumed positionally.
var detailedColumns = []string{
	"pagename", "page_id", "campaign_name", "timestamp", "time_scheduled",
	"sent", "delivered", "read", "clicked",
	"account_name", "user", "tl", "post_id", "post_url", "status",
}

var summaryColumns = []string{
	"pagename", "page_id", "timestamp", "totalCampaigns",
	"totalSent", "totalDelivered", "totalRead", "totalClicked",
	"account_name", "user", "tl",
	"revenue", "revenue_timestamp", "offer", "utm_medium",
	"conversion_count", "clicks", "leads",
}

func i64(v int64) string { return strconv.FormatInt(v, 10) }

func detailedRecord(r report.DetailedRow) []string {
	return []string{
		r.PageName, r.PageID, r.Campaign, r.Timestamp, r.Scheduled,
		i64(r.Sent), i64(r.Delivered), i64(r.Read), i64(r.Clicked),
		r.AccountName, r.User, r.TL, r.PostID, r.PostURL, r.Status,
	}
}

func summaryRecord(r report.SummaryRow) []string {
	return []string{
		r.PageName, r.PageID, r.Generated, strconv.Itoa(r.Campaigns),
		i64(r.Sent), i64(r.Delivered), i64(r.Read), i64(r.Clicked),
		r.AccountName, r.User, r.TL,
		r.Revenue, r.RevenueDate, r.Offer, r.Medium,
		r.Conversions, r.Clicks, r.Leads,
	}
}

func writeCSV(dir, kind string, columns []string, records [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, utils.UniqueFilename("manychat", kind, "csv"))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	utils.Log.Info("Wrote ", len(records), " rows to ", path)
	return path, nil
}

// WriteDetailedCSV writes one row per broadcast to a uniquely named file
// under dir. The label (a window suffix like "_today") becomes part of the
// filename so runs over different windows don't look alike.
func WriteDetailedCSV(dir, label string, rows []report.DetailedRow) (string, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = detailedRecord(r)
	}
	return writeCSV(dir, "detailed"+label, detailedColumns, records)
}

// WriteSummaryCSV writes one row per page plus the feed-only rows.
func WriteSummaryCSV(dir, label string, rows []report.SummaryRow) (string, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = summaryRecord(r)
	}
	return writeCSV(dir, "summary"+label, summaryColumns, records)
}
