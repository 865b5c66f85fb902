package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/veerababu74/spunkads/pkg/config"
	"github.com/veerababu74/spunkads/pkg/extract"
	"github.com/veerababu74/spunkads/pkg/revenue"
	"github.com/veerababu74/spunkads/pkg/timewindow"
)

// FeedOnlyAccount marks summary rows that exist only because the revenue
// feed reported a source no configured page matched.
const FeedOnlyAccount = "Revenue Feed Only"

// DetailedRow is one broadcast, flattened for export.
type DetailedRow struct {
	PageName    string
	PageID      string
	Campaign    string
	Timestamp   string
	Scheduled   string
	Sent        int64
	Delivered   int64
	Read        int64
	Clicked     int64
	AccountName string
	User        string
	TL          string
	PostID      string
	PostURL     string
	Status      string
}

// SummaryRow is one page's rollup, activity merged with attribution.
type SummaryRow struct {
	PageName    string
	PageID      string
	Generated   string
	Campaigns   int
	Sent        int64
	Delivered   int64
	Read        int64
	Clicked     int64
	AccountName string
	User        string
	TL          string
	Revenue     string
	RevenueDate string
	Offer       string
	Medium      string
	Conversions string
	Clicks      string
	Leads       string
}

type Options struct {
	IncludeZeroRevenue bool
	// Now overrides the generation timestamp; zero means time.Now.
	Now time.Time
}

// PostURL builds the app link to a single broadcast.
func PostURL(pageID, postID string) string {
	pageID = strings.TrimPrefix(pageID, "fb")
	postID = strings.ReplaceAll(strings.ReplaceAll(postID, "post_", ""), "fb", "")
	return "https://app.manychat.com/fb" + pageID + "/posting/history/" + postID
}

func stamp(epoch int64) string {
	if epoch <= 0 {
		return ""
	}
	return timewindow.Stamp(epoch)
}

// BuildDetailed flattens every extracted post into one row, in roster order.
func BuildDetailed(pages []config.Page, results map[string]extract.PageResult) []DetailedRow {
	var rows []DetailedRow
	for _, pg := range pages {
		res, ok := results[pg.Name]
		if !ok {
			continue
		}
		for _, p := range res.Posts {
			rows = append(rows, DetailedRow{
				PageName:    pg.Name,
				PageID:      pg.NormalizedID(),
				Campaign:    p.CampaignName(),
				Timestamp:   stamp(p.Timestamp()),
				Scheduled:   stamp(p.ScheduledTime()),
				Sent:        p.Stat("sent"),
				Delivered:   p.Stat("delivered"),
				Read:        p.Stat("read"),
				Clicked:     p.Stat("clicked"),
				AccountName: pg.AccountName,
				User:        pg.User,
				TL:          pg.TL,
				PostID:      p.ID(),
				PostURL:     PostURL(pg.ID, p.ID()),
				Status:      p.Status(),
			})
		}
	}
	return rows
}

// BuildSummary produces one row per extracted page, merging activity totals
// with the page's attribution, then appends one row per pseudo source. The
// appended rows have zero activity, a synthetic utm_<tag> page id and the
// FeedOnlyAccount label. IncludeZeroRevenue=false drops pseudo sources whose
// revenue rounds to nothing; real pages always stay.
func BuildSummary(pages []config.Page, results map[string]extract.PageResult,
	perName, pseudo map[string]revenue.Attribution, opts Options) []SummaryRow {

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	generated := timewindow.Stamp(now.Unix())

	var rows []SummaryRow
	for _, pg := range pages {
		res, ok := results[pg.Name]
		if !ok {
			continue
		}
		row := SummaryRow{
			PageName:    pg.Name,
			PageID:      pg.NormalizedID(),
			Generated:   generated,
			Campaigns:   len(res.Posts),
			AccountName: pg.AccountName,
			User:        pg.User,
			TL:          pg.TL,
			Revenue:     "0.00",
			RevenueDate: "N/A",
		}
		for _, p := range res.Posts {
			row.Sent += p.Stat("sent")
			row.Delivered += p.Stat("delivered")
			row.Read += p.Stat("read")
			row.Clicked += p.Stat("clicked")
		}
		if a, ok := perName[pg.Name]; ok {
			row.Revenue = a.Revenue
			row.RevenueDate = a.FirstDate
			row.Offer = a.Offer
			row.Medium = a.Medium
			row.Conversions = a.Conversions
			row.Clicks = a.Clicks
			row.Leads = a.Leads
		}
		rows = append(rows, row)
	}

	tags := make([]string, 0, len(pseudo))
	for tag := range pseudo {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		a := pseudo[tag]
		if !opts.IncludeZeroRevenue {
			if amt, err := strconv.ParseFloat(a.Revenue, 64); err == nil && amt <= 0 {
				continue
			}
		}
		rows = append(rows, SummaryRow{
			PageName:    tag,
			PageID:      "utm_" + tag,
			Generated:   generated,
			AccountName: FeedOnlyAccount,
			Revenue:     a.Revenue,
			RevenueDate: a.FirstDate,
		})
	}
	return rows
}
