package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/browser"
	"github.com/gcbaptista/go-facet-browser/internal/dataset"
	"github.com/gcbaptista/go-facet-browser/internal/engine"
	"github.com/gcbaptista/go-facet-browser/internal/jobs"
)

func main() {
	app := &cli.Command{
		Name:    "facet-browser",
		Usage:   "Faceted search and browsing over a JSON dataset",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Dataset file path or http(s) URL, overrides data_url",
			},
		},
		Commands: []*cli.Command{
			InitCommand(),
			ServeCommand(),
			QueryCommand(),
			FieldsCommand(),
			StatsCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}

// loadConfig reads the configuration and applies the --data override.
func loadConfig(c *cli.Command) (*config.AppConfig, error) {
	cfg, err := config.LoadAppConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if data := c.String("data"); data != "" {
		cfg.DataURL = data
	}
	return cfg, nil
}

// newBrowser validates cfg and builds an idle browser over its dataset
// source. Relative data paths are resolved against the config file's
// directory, or the working directory when --data is given.
func newBrowser(c *cli.Command, cfg *config.AppConfig, manager *jobs.Manager) (*browser.Browser, dataset.Source, error) {
	reg, searchSettings, err := cfg.Validate()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	index, err := engine.NewTextIndex(searchSettings)
	if err != nil {
		return nil, nil, fmt.Errorf("creating text index: %w", err)
	}

	baseDir := filepath.Dir(c.String("config"))
	if c.String("data") != "" {
		baseDir = "."
	}
	src := dataset.NewSource(cfg.DataURL, baseDir)

	b, err := browser.New(browser.Options{
		Registry: reg,
		Index:    index,
		Jobs:     manager,
		Source:   src,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating browser: %w", err)
	}
	return b, src, nil
}
