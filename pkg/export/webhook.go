package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/report"
	"github.com/veerababu74/spunkads/pkg/whttp"
)

// Webhook pushes rows to an Apps-Script style web app that appends them to a
// spreadsheet. The app expects {"sheet_name","headers","rows","append"} and
// answers {"success":true,...}.
type Webhook struct {
	URL      string
	Attempts int
	Delay    time.Duration
}

func (w *Webhook) attempts() int {
	if w.Attempts <= 0 {
		return 3
	}
	return w.Attempts
}

// UploadDetailed appends the detailed rows to the named sheet.
func (w *Webhook) UploadDetailed(sheet string, rows []report.DetailedRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = detailedRecord(r)
	}
	return w.upload(sheet, detailedColumns, records)
}

// UploadSummary appends the summary rows to the named sheet.
func (w *Webhook) UploadSummary(sheet string, rows []report.SummaryRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = summaryRecord(r)
	}
	return w.upload(sheet, summaryColumns, records)
}

func (w *Webhook) upload(sheet string, headers []string, rows [][]string) error {
	if w.URL == "" {
		return fmt.Errorf("no webhook URL configured")
	}
	payload, err := json.Marshal(map[string]interface{}{
		"sheet_name": sheet,
		"headers":    headers,
		"rows":       rows,
		"append":     true,
	})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= w.attempts(); attempt++ {
		res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
			Method:  "POST",
			URL:     w.URL,
			Body:    string(payload),
			Headers: []whttp.WHTTPHeader{{Name: "Content-Type", Value: "application/json"}},
		}, nil)
		switch {
		case err != nil:
			lastErr = err
		case res.StatusCode != 200:
			lastErr = fmt.Errorf("webhook returned status %d", res.StatusCode)
		case !gjson.Get(res.BodyString, "success").Bool():
			// The app reports script-level failures in-band with a 200.
			return fmt.Errorf("webhook rejected upload: %s", gjson.Get(res.BodyString, "error").String())
		default:
			utils.Log.Info("Uploaded ", len(rows), " rows to sheet ", sheet)
			return nil
		}
		utils.Log.Warn("Upload to ", sheet, " failed (attempt ", attempt, "): ", lastErr)
		if attempt < w.attempts() && w.Delay > 0 {
			time.Sleep(w.Delay)
		}
	}
	return fmt.Errorf("upload to sheet %s failed after %d attempts: %w", sheet, w.attempts(), lastErr)
}
