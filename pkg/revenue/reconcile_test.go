package revenue

import (
	"reflect"
	"testing"

	"github.com/veerababu74/spunkads/pkg/config"
)

func pages(names ...string) []config.Page {
	var out []config.Page
	for i, n := range names {
		out = append(out, config.Page{ID: "fb" + string(rune('1'+i)), Name: n, Active: true})
	}
	return out
}

func TestReconcileSplitsFeed(t *testing.T) {
	known := pages("Alpha Page", "Beta Page")
	feed := []Row{
		{Tag: "Alpha Page", Date: "2025-09-26", Offer: "OfferX", Medium: "cpc", Payout: 10.5, Conversions: 2, Clicks: 30, Leads: 1},
		{Tag: "Alpha Page", Date: "2025-09-25", Offer: "OfferY", Medium: "email", Payout: 4.25, Conversions: 1, Clicks: 10, Leads: 0},
		{Tag: "mystery_source", Date: "2025-09-26", Payout: 7.0},
		{Tag: ""},
	}

	perName, pseudo := Reconcile(known, feed)

	alpha := perName["Alpha Page"]
	if alpha.Revenue != "14.75" {
		t.Fatalf("alpha revenue = %q", alpha.Revenue)
	}
	if alpha.FirstDate != "2025-09-26" || alpha.Offer != "OfferX" || alpha.Medium != "cpc" {
		t.Fatalf("first-value capture broken: %+v", alpha)
	}
	if alpha.Conversions != "3" || alpha.Clicks != "40" || alpha.Leads != "1" {
		t.Fatalf("counters = %s/%s/%s", alpha.Conversions, alpha.Clicks, alpha.Leads)
	}
	if alpha.RowCount != 2 {
		t.Fatalf("row count = %d", alpha.RowCount)
	}

	beta := perName["Beta Page"]
	if beta.Revenue != "0.00" || beta.FirstDate != "N/A" {
		t.Fatalf("unmatched known page = %+v", beta)
	}
	if beta.Conversions != "" || beta.Clicks != "" || beta.Leads != "" {
		t.Fatalf("unmatched known page should carry empty counters: %+v", beta)
	}

	if len(pseudo) != 1 {
		t.Fatalf("pseudo = %v", pseudo)
	}
	m := pseudo["mystery_source"]
	if m.Revenue != "7.00" || m.RowCount != 1 || m.FirstDate != "2025-09-26" {
		t.Fatalf("pseudo = %+v", m)
	}
	if m.Offer != "" || m.Conversions != "" {
		t.Fatalf("pseudo entries carry no breakdown: %+v", m)
	}
}

func TestReconcileEveryKnownPageGetsARecord(t *testing.T) {
	known := pages("One", "Two", "Three")
	perName, _ := Reconcile(known, nil)
	if len(perName) != 3 {
		t.Fatalf("got %d records, want 3", len(perName))
	}
	for name, a := range perName {
		if a.Revenue != "0.00" || a.Key != name {
			t.Fatalf("%s = %+v", name, a)
		}
	}
}

func TestReconcileMapsAreDisjointAndConserveRows(t *testing.T) {
	known := pages("Alpha", "Beta")
	feed := []Row{
		{Tag: "Alpha", Payout: 1},
		{Tag: "stray", Payout: 2},
		{Tag: "Beta", Payout: 3},
		{Tag: "stray", Payout: 4},
		{Tag: "other", Payout: 5},
	}
	perName, pseudo := Reconcile(known, feed)

	for tag := range pseudo {
		if _, dup := perName[tag]; dup {
			t.Fatalf("tag %q present in both maps", tag)
		}
	}

	total := 0
	for _, a := range perName {
		total += a.RowCount
	}
	for _, a := range pseudo {
		total += a.RowCount
	}
	if total != len(feed) {
		t.Fatalf("accounted for %d rows, want %d", total, len(feed))
	}
}

func TestReconcileMatchIsCaseSensitive(t *testing.T) {
	perName, pseudo := Reconcile(pages("Alpha"), []Row{{Tag: "alpha", Payout: 9}})
	if perName["Alpha"].Revenue != "0.00" {
		t.Fatal("case-insensitive match leaked through")
	}
	if pseudo["alpha"].Revenue != "9.00" {
		t.Fatalf("pseudo = %v", pseudo)
	}
}

func TestReconcileKeepsZeroRevenuePseudoSources(t *testing.T) {
	_, pseudo := Reconcile(pages("Alpha"), []Row{{Tag: "dormant", Payout: 0}})
	if pseudo["dormant"].Revenue != "0.00" || pseudo["dormant"].RowCount != 1 {
		t.Fatalf("pseudo = %v", pseudo)
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	known := pages("Alpha")
	feed := []Row{{Tag: "Alpha", Payout: 1.5}, {Tag: "x", Payout: 2}}
	p1, s1 := Reconcile(known, feed)
	p2, s2 := Reconcile(known, feed)
	if !reflect.DeepEqual(p1, p2) || !reflect.DeepEqual(s1, s2) {
		t.Fatal("same inputs produced different rollups")
	}
}

func TestZeroAttributions(t *testing.T) {
	out := ZeroAttributions(pages("A", "B"))
	if len(out) != 2 || out["A"].Revenue != "0.00" || out["B"].FirstDate != "N/A" {
		t.Fatalf("out = %v", out)
	}
}
