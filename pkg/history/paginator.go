package history

import (
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/session"
	"github.com/veerababu74/spunkads/pkg/timewindow"
)

// StopReason records why pagination ended for a page. It is informational:
// whatever was collected up to that point is still returned.
type StopReason string

const (
	StopCursorExhausted StopReason = "cursor exhausted"
	StopPastWindow      StopReason = "past window"
	StopPageLimit       StopReason = "page limit"
	StopEmptyPage       StopReason = "empty page"
	StopNoData          StopReason = "no data"
	StopBridgeTimeout   StopReason = "bridge timeout"
)

// Pacing and polling knobs. Vars so tests can shorten them.
var (
	firstPageWait  = 8 * time.Second
	fetchAttempts  = 10
	fetchInterval  = 500 * time.Millisecond
	interPageDelay = time.Second
)

// Post is a single broadcast record from a loadHistory page, kept as raw
// JSON and read lazily through gjson.
type Post struct {
	raw gjson.Result
}

func (p Post) ID() string {
	if id := p.raw.Get("post_id"); id.Exists() {
		return id.String()
	}
	return p.raw.Get("id").String()
}

func (p Post) Timestamp() int64 {
	return p.raw.Get("timestamp").Int()
}

// CampaignName tries the locations the app is known to store the name in,
// newest layout first.
func (p Post) CampaignName() string {
	for _, path := range []string{"flow.name", "name", "preview", "namespace"} {
		if v := p.raw.Get(path); v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// Stat returns a counter from the stats block. Absent or null counters read
// as zero. "read" falls back to the older "opened" key.
func (p Post) Stat(name string) int64 {
	v := p.raw.Get("stats." + name).Int()
	if name == "read" && v == 0 {
		return p.raw.Get("stats.opened").Int()
	}
	return v
}

// Status normalizes the platform's "sent" to "published", matching what the
// UI shows.
func (p Post) Status() string {
	s := p.raw.Get("status").String()
	switch s {
	case "":
		return "unknown"
	case "sent":
		return "published"
	}
	return s
}

func (p Post) ScheduledTime() int64 {
	if v := p.raw.Get("scheduled_time"); v.Exists() {
		return v.Int()
	}
	if v := p.raw.Get("created_at"); v.Exists() {
		return v.Int()
	}
	return p.raw.Get("timestamp").Int()
}

// ParsePosts returns the posts array of one raw history page body.
func ParsePosts(body []byte) []Post {
	arr := gjson.GetBytes(body, "posts").Array()
	out := make([]Post, len(arr))
	for i, r := range arr {
		out[i] = Post{raw: r}
	}
	return out
}

const historyEndpoint = "/broadcasting/loadHistory"

func historyURL(pageID, limiter string) string {
	if !strings.HasPrefix(pageID, "fb") {
		pageID = "fb" + pageID
	}
	u := "https://app.manychat.com/" + pageID + historyEndpoint
	if limiter != "" {
		u += "?limiter=" + url.QueryEscape(limiter)
	}
	return u
}

// defaultHeaders is the fallback when the observed first-page request carried
// no usable headers. Mirrors what the web app sends.
func defaultHeaders(pageID string) map[string]string {
	if !strings.HasPrefix(pageID, "fb") {
		pageID = "fb" + pageID
	}
	return map[string]string{
		"accept":           "application/json, text/plain, */*",
		"accept-language":  "en-GB,en;q=0.6",
		"user-agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
		"x-requested-with": "XMLHttpRequest",
		"referer":          "https://app.manychat.com/" + pageID + "/posting/history",
	}
}

// FetchWindow walks the broadcast history of one page and returns every post
// whose timestamp falls inside the window.
//
// The first page is never requested: the app fires its own loadHistory call
// on load, so we pick that exchange up from the session capture, along with
// the authenticated request headers. Every later page is an issued request
// replaying those headers with the limiter cursor from the previous page.
//
// Posts are appended before any stop condition is evaluated, so the page that
// triggers termination still contributes its in-window posts.
func FetchWindow(sess session.PageSession, pageID string, window timewindow.Window, maxPages int) ([]Post, StopReason) {
	var all []Post
	limiter := ""
	var headers map[string]string

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		var ex *session.Exchange
		var err error

		if pageNum == 1 {
			ex, err = sess.Observe("loadHistory", firstPageWait)
			if err != nil {
				utils.Log.Error("History capture failed for page ", pageID, ": ", err)
				return all, StopBridgeTimeout
			}
			if ex == nil {
				utils.Log.Warn("No initial loadHistory exchange captured for page ", pageID)
				return all, StopNoData
			}
			if len(ex.RequestHeaders) > 0 {
				headers = ex.RequestHeaders
			} else {
				headers = defaultHeaders(pageID)
			}
		} else {
			ex, err = sess.IssueAndAwait(historyURL(pageID, limiter), headers, fetchAttempts, fetchInterval)
			if err != nil {
				utils.Log.Error("History request failed for page ", pageID, ": ", err)
				return all, StopBridgeTimeout
			}
			if ex == nil {
				return all, StopBridgeTimeout
			}
		}

		page := gjson.ParseBytes(ex.Body)
		posts := ParsePosts(ex.Body)
		newLimiter := page.Get("limiter").String()
		utils.Log.Debug("Page ", pageNum, " for ", pageID, ": ", len(posts),
			" posts, total ", page.Get("total").Int())

		if len(posts) == 0 {
			if pageNum == 1 {
				return all, StopNoData
			}
			return all, StopEmptyPage
		}

		var oldest int64
		for _, p := range posts {
			ts := p.Timestamp()
			if ts <= 0 {
				continue
			}
			if oldest == 0 || ts < oldest {
				oldest = ts
			}
			if window.Contains(ts) {
				all = append(all, p)
			}
		}

		if newLimiter == "" || newLimiter == limiter {
			return all, StopCursorExhausted
		}
		if start := window.StartUnix(); start > 0 && oldest > 0 && oldest < start {
			return all, StopPastWindow
		}

		limiter = newLimiter
		if pageNum < maxPages {
			time.Sleep(interPageDelay)
		}
	}
	return all, StopPageLimit
}
