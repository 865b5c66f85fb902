package revenue

import (
	"fmt"
	"strconv"

	"github.com/veerababu74/spunkads/pkg/config"
)

// Attribution is the per-source rollup handed to reporting. Fields are kept
// as display strings: revenue formatted to two decimals, counters rendered
// as decimal strings for matched sources and left empty for pseudo sources,
// FirstDate "N/A" when no row supplied one.
type Attribution struct {
	Key         string
	Revenue     string
	FirstDate   string
	Offer       string
	Medium      string
	Conversions string
	Clicks      string
	Leads       string
	RowCount    int
}

func zeroAttribution(name string) Attribution {
	return Attribution{Key: name, Revenue: "0.00", FirstDate: "N/A"}
}

// ZeroAttributions builds an all-zero rollup for every known page. Used when
// the feed cannot be fetched so the report still carries every page.
func ZeroAttributions(known []config.Page) map[string]Attribution {
	out := make(map[string]Attribution, len(known))
	for _, pg := range known {
		out[pg.Name] = zeroAttribution(pg.Name)
	}
	return out
}

type rollup struct {
	payout      float64
	conversions int64
	clicks      int64
	leads       int64
	firstDate   string
	offer       string
	medium      string
	rows        int
}

func (a *rollup) add(r Row) {
	a.payout += r.Payout
	a.conversions += r.Conversions
	a.clicks += r.Clicks
	a.leads += r.Leads
	a.rows++
	if a.firstDate == "" {
		a.firstDate = r.Date
	}
	if a.offer == "" {
		a.offer = r.Offer
	}
	if a.medium == "" {
		a.medium = r.Medium
	}
}

// Reconcile splits the feed across the known page roster. A row belongs to a
// page when its trimmed tag equals the page name exactly, case sensitive.
// Every known page gets an entry even with no matching rows; every tag with
// no matching page becomes a pseudo entry in the second map. Rows with an
// empty tag are dropped. The two maps never share a key, and every non-empty
// feed row lands in exactly one of them.
func Reconcile(known []config.Page, feed []Row) (perName map[string]Attribution, pseudo map[string]Attribution) {
	knownNames := make(map[string]bool, len(known))
	for _, pg := range known {
		knownNames[pg.Name] = true
	}

	matched := make(map[string]*rollup)
	orphaned := make(map[string]*rollup)
	for _, r := range feed {
		if r.Tag == "" {
			continue
		}
		dest := orphaned
		if knownNames[r.Tag] {
			dest = matched
		}
		agg := dest[r.Tag]
		if agg == nil {
			agg = &rollup{}
			dest[r.Tag] = agg
		}
		agg.add(r)
	}

	perName = make(map[string]Attribution, len(known))
	for _, pg := range known {
		agg, ok := matched[pg.Name]
		if !ok {
			perName[pg.Name] = zeroAttribution(pg.Name)
			continue
		}
		perName[pg.Name] = Attribution{
			Key:         pg.Name,
			Revenue:     fmt.Sprintf("%.2f", agg.payout),
			FirstDate:   orNA(agg.firstDate),
			Offer:       agg.offer,
			Medium:      agg.medium,
			Conversions: strconv.FormatInt(agg.conversions, 10),
			Clicks:      strconv.FormatInt(agg.clicks, 10),
			Leads:       strconv.FormatInt(agg.leads, 10),
			RowCount:    agg.rows,
		}
	}

	pseudo = make(map[string]Attribution, len(orphaned))
	for tag, agg := range orphaned {
		// Pseudo sources carry only revenue, date and row count; the
		// per-offer breakdown is not meaningful without a page behind it.
		pseudo[tag] = Attribution{
			Key:       tag,
			Revenue:   fmt.Sprintf("%.2f", agg.payout),
			FirstDate: orNA(agg.firstDate),
			RowCount:  agg.rows,
		}
	}
	return perName, pseudo
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
