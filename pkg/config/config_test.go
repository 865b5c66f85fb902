package config

import "testing"

func validConfig() *Config {
	return &Config{
		Pages: []Page{
			{ID: "fb111", Name: "PageA", Active: true},
			{ID: "222", Name: "PageB", Active: false},
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsEmptyRoster(t *testing.T) {
	c := &Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for empty roster")
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	c := &Config{Pages: []Page{{Name: "x", Active: true}}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing id")
	}
	c = &Config{Pages: []Page{{ID: "1", Active: true}}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	c := &Config{Pages: []Page{
		{ID: "1", Name: "Same", Active: true},
		{ID: "2", Name: "Same", Active: true},
	}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for duplicate names")
	}
}

func TestValidateRejectsAllInactive(t *testing.T) {
	c := &Config{Pages: []Page{{ID: "1", Name: "A", Active: false}}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when no page is active")
	}
}

func TestActivePagesPreservesOrder(t *testing.T) {
	c := &Config{Pages: []Page{
		{ID: "1", Name: "A", Active: true},
		{ID: "2", Name: "B", Active: false},
		{ID: "3", Name: "C", Active: true},
	}}
	got := c.ActivePages()
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Fatalf("unexpected active pages: %#v", got)
	}
}

func TestNormalizedID(t *testing.T) {
	if got := (Page{ID: "fb12345"}).NormalizedID(); got != "12345" {
		t.Fatalf("got %q", got)
	}
	if got := (Page{ID: "12345"}).NormalizedID(); got != "12345" {
		t.Fatalf("got %q", got)
	}
}

func TestExcludedSubstringCaseInsensitive(t *testing.T) {
	c := &Config{ExcludeCampaigns: []string{"test", "Draft"}}

	tests := []struct {
		name string
		want bool
	}{
		{"My TEST Campaign", true},
		{"draft-v2", true},
		{"Production Blast", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := c.Excluded(tc.name); got != tc.want {
			t.Fatalf("Excluded(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
