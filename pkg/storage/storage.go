package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veerababu74/spunkads/pkg/report"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS broadcasts (
  id             INTEGER PRIMARY KEY,
  run_id         TEXT NOT NULL,
  page_name      TEXT NOT NULL,
  page_id        TEXT NOT NULL,
  campaign_name  TEXT,
  sent_at        TEXT,
  scheduled_at   TEXT,
  sent           INTEGER NOT NULL DEFAULT 0,
  delivered      INTEGER NOT NULL DEFAULT 0,
  read           INTEGER NOT NULL DEFAULT 0,
  clicked        INTEGER NOT NULL DEFAULT 0,
  account_name   TEXT,
  user           TEXT,
  tl             TEXT,
  post_id        TEXT NOT NULL,
  post_url       TEXT,
  status         TEXT,
  created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_broadcasts_run ON broadcasts(run_id);
CREATE INDEX IF NOT EXISTS idx_broadcasts_page ON broadcasts(page_id, sent_at);
CREATE TABLE IF NOT EXISTS page_summaries (
  id               INTEGER PRIMARY KEY,
  run_id           TEXT NOT NULL,
  page_name        TEXT NOT NULL,
  page_id          TEXT NOT NULL,
  generated_at     TEXT,
  campaigns        INTEGER NOT NULL DEFAULT 0,
  sent             INTEGER NOT NULL DEFAULT 0,
  delivered        INTEGER NOT NULL DEFAULT 0,
  read             INTEGER NOT NULL DEFAULT 0,
  clicked          INTEGER NOT NULL DEFAULT 0,
  account_name     TEXT,
  user             TEXT,
  tl               TEXT,
  revenue          TEXT,
  revenue_date     TEXT,
  offer            TEXT,
  medium           TEXT,
  conversions      TEXT,
  clicks           TEXT,
  leads            TEXT,
  created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_summaries_run ON page_summaries(run_id);
CREATE INDEX IF NOT EXISTS idx_summaries_page ON page_summaries(page_id, created_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun persists one extraction run atomically: every detailed broadcast
// row and every summary row under the same run id.
func (d *DB) SaveRun(ctx context.Context, runID string, detailed []report.DetailedRow, summary []report.SummaryRow) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range detailed {
		_, err = tx.ExecContext(ctx, `INSERT INTO broadcasts(run_id, page_name, page_id, campaign_name, sent_at, scheduled_at, sent, delivered, read, clicked, account_name, user, tl, post_id, post_url, status) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, r.PageName, r.PageID, nullIfEmpty(r.Campaign), nullIfEmpty(r.Timestamp), nullIfEmpty(r.Scheduled),
			r.Sent, r.Delivered, r.Read, r.Clicked,
			nullIfEmpty(r.AccountName), nullIfEmpty(r.User), nullIfEmpty(r.TL),
			r.PostID, nullIfEmpty(r.PostURL), nullIfEmpty(r.Status))
		if err != nil {
			return err
		}
	}

	for _, r := range summary {
		_, err = tx.ExecContext(ctx, `INSERT INTO page_summaries(run_id, page_name, page_id, generated_at, campaigns, sent, delivered, read, clicked, account_name, user, tl, revenue, revenue_date, offer, medium, conversions, clicks, leads) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, r.PageName, r.PageID, nullIfEmpty(r.Generated),
			r.Campaigns, r.Sent, r.Delivered, r.Read, r.Clicked,
			nullIfEmpty(r.AccountName), nullIfEmpty(r.User), nullIfEmpty(r.TL),
			nullIfEmpty(r.Revenue), nullIfEmpty(r.RevenueDate), nullIfEmpty(r.Offer), nullIfEmpty(r.Medium),
			nullIfEmpty(r.Conversions), nullIfEmpty(r.Clicks), nullIfEmpty(r.Leads))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SummaryRecord is one stored summary row plus its run metadata.
type SummaryRecord struct {
	RunID     string
	CreatedAt time.Time
	Row       report.SummaryRow
}

// ListSummaries returns the most recent stored summary rows, newest first.
func (d *DB) ListSummaries(ctx context.Context, limit int) ([]SummaryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT run_id, created_at, page_name, page_id, campaigns, sent, delivered, read, clicked, account_name, revenue, revenue_date FROM page_summaries ORDER BY created_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		var createdAt string
		var account, revenue, revenueDate sql.NullString
		if err := rows.Scan(&rec.RunID, &createdAt, &rec.Row.PageName, &rec.Row.PageID,
			&rec.Row.Campaigns, &rec.Row.Sent, &rec.Row.Delivered, &rec.Row.Read, &rec.Row.Clicked,
			&account, &revenue, &revenueDate); err != nil {
			return nil, err
		}
		// Parse SQLite CURRENT_TIMESTAMP format, then RFC3339.
		if t, perr := time.Parse("2006-01-02 15:04:05", createdAt); perr == nil {
			rec.CreatedAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, createdAt); perr2 == nil {
			rec.CreatedAt = t2
		}
		rec.Row.AccountName = account.String
		rec.Row.Revenue = revenue.String
		rec.Row.RevenueDate = revenueDate.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type PageStats struct {
	PageName   string
	Broadcasts int
	Runs       int
}

func (d *DB) GetStats(ctx context.Context) ([]PageStats, error) {
	query := `
		SELECT
			page_name,
			COUNT(post_id),
			COUNT(DISTINCT run_id)
		FROM
			broadcasts
		GROUP BY
			page_name
		ORDER BY
			page_name;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PageStats
	for rows.Next() {
		var s PageStats
		if err := rows.Scan(&s.PageName, &s.Broadcasts, &s.Runs); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
