package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/gcbaptista/go-facet-browser/internal/analytics"
	"github.com/gcbaptista/go-facet-browser/internal/settings"
	"github.com/gcbaptista/go-facet-browser/internal/termview"
	"github.com/gcbaptista/go-facet-browser/model"
)

// QueryCommand creates the query command
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Load the dataset, search and filter it once, and print facets and results",
		ArgsUsage: "[search terms]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Toggle a facet value, as field=value. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "range",
				Usage: "Restrict a numeric field, as field=min:max (either side may be empty). Can be used multiple times",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first result to show",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of results to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "display",
				Usage: "Results display: List or Table (default: the saved user setting)",
			},
			&cli.IntFlag{
				Name:  "facet-values",
				Usage: "Maximum values listed per facet (0 for no limit)",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "no-facets",
				Usage: "Do not print facets",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up when loading and indexing take longer than this",
				Value: 2 * time.Minute,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runQuery(ctx, c)
		},
	}
}

func runQuery(ctx context.Context, c *cli.Command) error {
	filterFlags, err := parseFilterFlags(c.StringSlice("filter"))
	if err != nil {
		return err
	}
	rangeFlags, err := parseRangeFlags(c.StringSlice("range"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	b, src, err := newBrowser(c, cfg, nil)
	if err != nil {
		return err
	}
	defer b.Close()
	reg := b.Registry()

	store, err := settings.Open(cfg.Settings.Dir, cfg.Settings.Key, reg)
	if err != nil {
		return fmt.Errorf("opening user settings: %w", err)
	}
	us := store.Get()
	if display := c.String("display"); display != "" {
		us.ResultsDisplayType = model.ResultsDisplayType(display)
		if !us.ResultsDisplayType.IsValid() {
			return fmt.Errorf("invalid display %q, want %s or %s", display, model.DisplayList, model.DisplayTable)
		}
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()
	if _, err := b.LoadFrom(loadCtx, src); err != nil {
		return err
	}
	if err := b.WaitIndexed(loadCtx); err != nil {
		return fmt.Errorf("waiting for index: %w", err)
	}

	query := strings.Join(c.Args().Slice(), " ")
	startTime := time.Now()
	outcome, err := b.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	tracker := analytics.NewService(analyticsPath(cfg.Settings.Dir))
	tracker.TrackSearch(model.SearchEvent{
		Generation:     outcome.Generation,
		Query:          outcome.Query,
		Channel:        model.SearchChannelCLI,
		ResponseTime:   time.Since(startTime),
		WorkingSetSize: outcome.WorkingSetSize,
		MatchingCount:  outcome.MatchingCount,
	})
	defer func() {
		if err := tracker.Flush(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	for _, f := range filterFlags {
		if _, ok := reg.Field(f.field); !ok {
			return fmt.Errorf("unknown field %q", f.field)
		}
		if change := b.ToggleValue(f.field, f.value); !change.Changed {
			log.Printf("Warning: filter %s=%s had no effect", f.field, f.value)
			continue
		}
		tracker.TrackFilter(f.field, f.value)
	}
	for _, r := range rangeFlags {
		if _, ok := reg.Field(r.field); !ok {
			return fmt.Errorf("unknown field %q", r.field)
		}
		if change := b.SetRange(r.field, r.min, r.max); !change.Changed {
			log.Printf("Warning: range on %s had no effect", r.field)
			continue
		}
		tracker.TrackFilter(r.field, "")
	}

	page, err := b.Results(c.Int("offset"), c.Int("limit"))
	if err != nil {
		return err
	}

	if !c.Bool("no-facets") {
		fmt.Print(termview.Facets(reg, page.Facets, page.Filters, c.Int("facet-values")))
	}
	fmt.Print(termview.Results(reg, page, us))
	return nil
}

type filterFlag struct {
	field string
	value string
}

type rangeFlag struct {
	field    string
	min, max *float64
}

// parseFilterFlags parses field=value pairs. The value may contain '='.
func parseFilterFlags(specs []string) ([]filterFlag, error) {
	out := make([]filterFlag, 0, len(specs))
	for _, spec := range specs {
		field, value, ok := strings.Cut(spec, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --filter %q, want field=value", spec)
		}
		out = append(out, filterFlag{field: field, value: value})
	}
	return out, nil
}

// parseRangeFlags parses field=min:max specs. An empty side is open, but
// at least one side must be set.
func parseRangeFlags(specs []string) ([]rangeFlag, error) {
	out := make([]rangeFlag, 0, len(specs))
	for _, spec := range specs {
		field, bounds, ok := strings.Cut(spec, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --range %q, want field=min:max", spec)
		}
		lo, hi, ok := strings.Cut(bounds, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --range %q, want field=min:max", spec)
		}

		r := rangeFlag{field: field}
		var err error
		if r.min, err = parseBound(lo); err != nil {
			return nil, fmt.Errorf("invalid --range %q: %w", spec, err)
		}
		if r.max, err = parseBound(hi); err != nil {
			return nil, fmt.Errorf("invalid --range %q: %w", spec, err)
		}
		if r.min == nil && r.max == nil {
			return nil, fmt.Errorf("invalid --range %q, set at least one bound", spec)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseBound(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("bound %q is not a finite number", s)
	}
	return &v, nil
}
