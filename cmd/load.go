package cmd

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/defstat/internal/census"
	"github.com/KaramelBytes/defstat/internal/chart"
	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/KaramelBytes/defstat/internal/compare"
	cfgpkg "github.com/KaramelBytes/defstat/internal/config"
	"github.com/KaramelBytes/defstat/internal/session"
	"github.com/KaramelBytes/defstat/internal/source"
	"github.com/rotisserie/eris"
)

// newLocator picks the HTTP locator when a source URL is configured, else the data directory.
func newLocator(c *cfgpkg.Global) source.Locator {
	if c.SourceURL != "" {
		loc := source.NewHTTPLocator(
			c.SourceURL,
			c.FilePattern,
			time.Duration(c.HTTPTimeoutSec)*time.Second,
			c.RetryMaxAttempts,
			time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
			time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
		)
		if c.HTTPRequestsPerSec != 0 {
			loc.SetRateLimit(c.HTTPRequestsPerSec)
		}
		return loc
	}
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return source.NewFSLocator(dir, c.FilePattern)
}

// parseYear reads the optional year argument; no argument means the current year.
func parseYear(args []string) (int, error) {
	if len(args) == 0 {
		return time.Now().Year(), nil
	}
	y, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || y < 1900 || y > 9999 {
		return 0, eris.Errorf("invalid year: %s", args[0])
	}
	return y, nil
}

func loadSession(ctx context.Context, args []string) (*session.Session, error) {
	year, err := parseYear(args)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &cfgpkg.Global{}
	}
	return session.Load(ctx, session.Options{
		Year:       year,
		Lookback:   cfg.LookbackYears,
		Locator:    newLocator(cfg),
		Normalizer: classify.NewNormalizer(cfg.EthnicityColumns, nil),
		Reference:  census.CountyPopulation,
		Palette:    census.DefaultPalette,
	})
}

// layoutFor returns the flag value when set, else the configured layout.
func layoutFor(flag string) (compare.Layout, error) {
	if flag != "" {
		return compare.ParseLayout(flag)
	}
	return compare.ParseLayout(cfg.Layout)
}

// chartOptions builds chart options from config, with an optional format override.
func chartOptions(format string) chart.Options {
	opt := chart.DefaultOptions()
	if cfg.ChartWidth > 0 {
		opt.Width = cfg.ChartWidth
	}
	if cfg.ChartHeight > 0 {
		opt.Height = cfg.ChartHeight
	}
	if format == "" {
		format = cfg.ChartFormat
	}
	opt.Format = chart.ParseFormat(format)
	return opt
}

// parseCategory accepts an index, a census label, or any text the classifier understands.
func parseCategory(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		if !census.Category(i).Valid() {
			return 0, eris.Errorf("category index %d out of range 0-%d", i, census.NumCategories-1)
		}
		return i, nil
	}
	if c, ok := census.Parse(s); ok {
		return c.Index(), nil
	}
	if c, ok := classify.DefaultRules.Classify(s); ok {
		return c.Index(), nil
	}
	return 0, eris.Errorf("unknown category: %s", s)
}
