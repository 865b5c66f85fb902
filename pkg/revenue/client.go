package revenue

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/whttp"
)

// DefaultFeedURL is the grouped daily report used when no feed URL is
// configured.
const DefaultFeedURL = "https://dashboard.spunkstats.net/api/v1/SPK/report/yesterday/yesterday/?groupBy=date,offer,utm_source,utm_medium&limit=1000000"

// Row is one line of the revenue feed, already coerced to usable types.
// The upstream report keys its fields dt/utm_s/a/o/utm_m/c/cl/l; malformed
// numerics coerce to zero here so nothing downstream parses strings again.
type Row struct {
	Tag         string // utm_s, trimmed
	Date        string
	Offer       string
	Medium      string
	Payout      float64
	Conversions int64
	Clicks      int64
	Leads       int64
}

type Client struct {
	URL    string
	UserID string
	APIKey string
}

// Fetch pulls the revenue feed in a single authenticated call. The endpoint
// must answer with a JSON array of row objects; anything else is an error so
// the caller can fall back to zeroed attributions.
func (c *Client) Fetch() ([]Row, error) {
	url := c.URL
	if url == "" {
		url = DefaultFeedURL
	}
	utils.Log.Info("Fetching revenue feed")

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    url,
		Headers: []whttp.WHTTPHeader{
			{Name: "x-api-key", Value: c.APIKey},
			{Name: "x-user-id", Value: c.UserID},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("revenue feed request failed: %w", err)
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("revenue feed returned status %d", res.StatusCode)
	}

	parsed := gjson.Parse(res.BodyString)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("revenue feed returned unexpected shape (want array, got %s)", parsed.Type)
	}

	var rows []Row
	parsed.ForEach(func(_, r gjson.Result) bool {
		if !r.IsObject() {
			return true
		}
		rows = append(rows, Row{
			Tag:         strings.TrimSpace(r.Get("utm_s").String()),
			Date:        r.Get("dt").String(),
			Offer:       r.Get("o").String(),
			Medium:      r.Get("utm_m").String(),
			Payout:      r.Get("a").Float(),
			Conversions: r.Get("c").Int(),
			Clicks:      r.Get("cl").Int(),
			Leads:       r.Get("l").Int(),
		})
		return true
	})
	utils.Log.Info("Revenue feed: ", len(rows), " rows")
	return rows, nil
}
