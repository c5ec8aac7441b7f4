package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/analytics"
	"github.com/gcbaptista/go-facet-browser/internal/termview"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a configuration file with the built-in GO-CAM defaults",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"), c.Bool("force"))
		},
	}
}

// initConfig initializes the configuration file
func initConfig(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultGoCamConfig()
	if err := config.SaveAppConfig(cfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration initialized at %s\n", configPath)
	return nil
}

// FieldsCommand creates the fields command
func FieldsCommand() *cli.Command {
	return &cli.Command{
		Name:  "fields",
		Usage: "Show the field registry",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			reg, _, err := cfg.Validate()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			fmt.Print(termview.Fields(reg))
			return nil
		},
	}
}

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show recorded search and filter usage",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			tracker := analytics.NewService(analyticsPath(cfg.Settings.Dir))
			fmt.Print(termview.Analytics(tracker.GetDashboardData()))
			return nil
		},
	}
}
