package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/gcbaptista/go-facet-browser/api"
	"github.com/gcbaptista/go-facet-browser/internal/analytics"
	"github.com/gcbaptista/go-facet-browser/internal/dataset"
	"github.com/gcbaptista/go-facet-browser/internal/jobs"
	"github.com/gcbaptista/go-facet-browser/internal/settings"
)

const (
	maxRequestBody         = 1 << 20
	shutdownTimeout        = 10 * time.Second
	analyticsFlushInterval = time.Minute
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Load the dataset and serve the browsing API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to listen on, overrides server.host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on, overrides server.port",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the dataset when the data file changes",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if host := c.String("host"); host != "" {
		cfg.Server.Host = host
	}
	if port := c.Int("port"); port != 0 {
		cfg.Server.Port = port
	}

	manager := jobs.NewManager(1)
	manager.Start()
	defer manager.Stop()

	b, src, err := newBrowser(c, cfg, manager)
	if err != nil {
		return err
	}
	defer b.Close()

	store, err := settings.Open(cfg.Settings.Dir, cfg.Settings.Key, b.Registry())
	if err != nil {
		return fmt.Errorf("opening user settings: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := analytics.NewService(analyticsPath(cfg.Settings.Dir))
	analyticsDone := make(chan struct{})
	go func() {
		defer close(analyticsDone)
		tracker.Run(serveCtx, analyticsFlushInterval)
	}()
	defer func() {
		cancel()
		<-analyticsDone // final flush
	}()

	reload := func(reason string) {
		jobID, err := b.Reload(serveCtx)
		if err != nil {
			log.Printf("Warning: failed to reload dataset (%s): %v", reason, err)
			return
		}
		log.Printf("Reloading dataset from %s (%s), job %s", src, reason, jobID)
	}
	reload("startup")

	if c.Bool("watch") || cfg.Watch {
		if fileSrc, ok := src.(*dataset.FileSource); ok {
			watcher, err := dataset.NewWatcher(fileSrc.Path, dataset.DefaultSettle, func() { reload("file changed") })
			if err != nil {
				log.Printf("Warning: failed to watch dataset file: %v", err)
			} else {
				go watcher.Run(serveCtx)
			}
		} else {
			log.Printf("Warning: --watch ignored, %s is not a local file", src)
		}
	}

	router := gin.Default()
	router.Use(api.RequestIDMiddleware())
	router.Use(api.CORSMiddleware())
	router.Use(api.RequestSizeLimitMiddleware(maxRequestBody))
	api.SetupRoutes(router, api.NewAPI(b, store, tracker, cfg))

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s...", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// SIGHUP reloads the dataset
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	shutdown := func() error {
		fmt.Println("\nShutting down...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}

	for {
		select {
		case err, ok := <-serverErr:
			if ok {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				log.Println("Received SIGHUP, reloading dataset...")
				reload("SIGHUP")
				continue
			}
			return shutdown()
		case <-ctx.Done():
			return shutdown()
		}
	}
}

// analyticsPath places the analytics log next to the user settings.
func analyticsPath(settingsDir string) string {
	if settingsDir == "" {
		return ""
	}
	return filepath.Join(settingsDir, "analytics.gob")
}
