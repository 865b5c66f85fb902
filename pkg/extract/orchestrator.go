package extract

import (
	"context"
	"time"

	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/config"
	"github.com/veerababu74/spunkads/pkg/history"
	"github.com/veerababu74/spunkads/pkg/session"
	"github.com/veerababu74/spunkads/pkg/timewindow"
)

const defaultMaxPages = 25

// PageResult holds one page's extraction outcome. When Err is set the page
// failed and Posts is empty; StopReason is meaningful only on success.
type PageResult struct {
	Page       config.Page
	Posts      []history.Post
	Elapsed    time.Duration
	StopReason history.StopReason
	Err        error
}

// Runner walks the configured pages one at a time. Pages never run
// concurrently: each gets its own session, and a failure in one page is
// logged and recorded without touching the others.
type Runner struct {
	Provider  session.Provider
	MaxPages  int
	PageDelay time.Duration
}

// RunAll extracts every page in roster order and returns results keyed by
// page name. The excluded predicate drops individual posts by campaign name
// before they reach any aggregate. A cancelled context stops between pages,
// keeping whatever was already collected.
func (r *Runner) RunAll(ctx context.Context, pages []config.Page, window timewindow.Window, excluded func(string) bool) map[string]PageResult {
	results := make(map[string]PageResult, len(pages))
	for i, pg := range pages {
		if ctx.Err() != nil {
			utils.Log.Warn("Extraction cancelled, ", len(pages)-i, " pages skipped")
			break
		}
		utils.Log.Info("Extracting page ", pg.Name, " (", i+1, "/", len(pages), ")")
		results[pg.Name] = r.runOne(pg, window, excluded)
		if i < len(pages)-1 && r.PageDelay > 0 {
			time.Sleep(r.PageDelay)
		}
	}
	return results
}

func (r *Runner) runOne(pg config.Page, window timewindow.Window, excluded func(string) bool) PageResult {
	start := time.Now()
	res := PageResult{Page: pg}

	sess, err := r.Provider.Open(pg.NormalizedID())
	if err != nil {
		utils.Log.Error("Could not open session for ", pg.Name, ": ", err)
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			utils.Log.Warn("Closing session for ", pg.Name, ": ", cerr)
		}
	}()

	maxPages := r.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	posts, reason := history.FetchWindow(sess, pg.NormalizedID(), window, maxPages)

	if excluded != nil {
		kept := make([]history.Post, 0, len(posts))
		dropped := 0
		for _, p := range posts {
			if excluded(p.CampaignName()) {
				dropped++
				continue
			}
			kept = append(kept, p)
		}
		if dropped > 0 {
			utils.Log.Info("Excluded ", dropped, " campaigns for ", pg.Name)
		}
		posts = kept
	}

	res.Posts = posts
	res.StopReason = reason
	res.Elapsed = time.Since(start)
	utils.Log.Info("Page ", pg.Name, ": ", len(posts), " posts in ",
		res.Elapsed.Round(time.Millisecond), " (", string(reason), ")")
	return res
}
