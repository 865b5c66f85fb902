// Package config loads and validates the page roster and run settings.
// Configuration problems are the only hard failures in the tool: a run
// never starts with a broken roster.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Page is one configured entity. ID is the stable identity used for
// session routing; Name is the join key the revenue feed tags rows with
// and must be unique across the roster.
type Page struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Active      bool   `mapstructure:"active"`
	Description string `mapstructure:"description"`
	AccountName string `mapstructure:"account_name"`
	User        string `mapstructure:"user"`
	TL          string `mapstructure:"tl"`
}

// NormalizedID strips the legacy "fb" prefix some rosters carry.
func (p Page) NormalizedID() string {
	return NormalizeID(p.ID)
}

func NormalizeID(id string) string {
	return strings.TrimPrefix(id, "fb")
}

// Config is the full run configuration read from viper.
type Config struct {
	Pages            []Page   `mapstructure:"pages"`
	ExcludeCampaigns []string `mapstructure:"exclude_campaigns"`

	Window struct {
		Mode     string `mapstructure:"mode"`
		Specific string `mapstructure:"specific_date"`
		Start    string `mapstructure:"start"`
		End      string `mapstructure:"end"`
	} `mapstructure:"window"`

	Bridge struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"bridge"`

	Revenue struct {
		URL    string `mapstructure:"url"`
		UserID string `mapstructure:"user_id"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"revenue"`

	Output struct {
		CSVDir             string `mapstructure:"csv_dir"`
		DBPath             string `mapstructure:"db_path"`
		WebhookURL         string `mapstructure:"webhook_url"`
		DetailedSheet      string `mapstructure:"detailed_sheet"`
		SummarySheet       string `mapstructure:"summary_sheet"`
		IncludeZeroRevenue bool   `mapstructure:"include_zero_revenue"`
	} `mapstructure:"output"`
}

// Load unmarshals the current viper state into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Output.IncludeZeroRevenue = true
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the page roster. Errors here abort the run.
func (c *Config) Validate() error {
	if len(c.Pages) == 0 {
		return errors.New("no pages defined in configuration")
	}

	seen := make(map[string]bool, len(c.Pages))
	active := 0
	for i, p := range c.Pages {
		if p.ID == "" {
			return fmt.Errorf("page %d missing required field: id", i+1)
		}
		if p.Name == "" {
			return fmt.Errorf("page %d (%s) missing required field: name", i+1, p.ID)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate page name %q: names are the revenue join key and must be unique", p.Name)
		}
		seen[p.Name] = true
		if p.Active {
			active++
		}
	}
	if active == 0 {
		return errors.New("no active pages found")
	}
	return nil
}

// ActivePages returns the pages to extract, in configured order.
func (c *Config) ActivePages() []Page {
	out := make([]Page, 0, len(c.Pages))
	for _, p := range c.Pages {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// PageByName looks up a page by its revenue join key.
func (c *Config) PageByName(name string) (Page, bool) {
	for _, p := range c.Pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}

// Excluded reports whether a campaign name matches any configured
// exclusion substring, case-insensitively. Excluded campaigns never reach
// any aggregate.
func (c *Config) Excluded(campaignName string) bool {
	if campaignName == "" {
		return false
	}
	lower := strings.ToLower(campaignName)
	for _, sub := range c.ExcludeCampaigns {
		sub = strings.ToLower(strings.TrimSpace(sub))
		if sub != "" && strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
