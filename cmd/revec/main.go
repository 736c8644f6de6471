// Copyright 2025 Casalio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/casalio/revec"
	"github.com/casalio/revec/admin"
	"github.com/casalio/revec/config"
	"github.com/casalio/revec/reembed"
	"github.com/casalio/revec/report"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "revec",
		Usage: "Maintenance jobs for the real-estate search collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the environment",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "reembed",
				Usage:  "Re-embed listings with failed or missing vectors until the collection converges",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "index",
						Usage: "Listing index to sweep (overrides INDEX_NAME)",
					},
					&cli.StringFlag{
						Name:  "progress-file",
						Usage: "Path to the resume record (overrides PROGRESS_FILE)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Listings per embedding call (overrides BATCH_SIZE)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Report embedding coverage across the collection",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the report as JSON",
					},
					&cli.StringFlag{
						Name:  "index",
						Usage: "Listing index to report on (overrides INDEX_NAME)",
					},
				},
			},
			{
				Name:   "normalize-phones",
				Usage:  "Normalize stored phone numbers across the listing indexes",
				Action: normalizePhonesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Index pattern to sweep (overrides INDEX_PATTERN)",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Listings per scroll page (overrides NORMALIZE_PAGE_SIZE)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent bulk writes (overrides NORMALIZE_WORKERS)",
					},
				},
			},
			{
				Name:   "import-agents",
				Usage:  "Import agents from a cluster export file",
				Action: importAgentsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the agents export JSON",
						Required: true,
					},
				},
			},
			{
				Name:   "setup-template",
				Usage:  "Install the listing index template",
				Action: setupTemplateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Template name",
						Value: admin.DefaultTemplateName,
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Index pattern the template applies to (overrides INDEX_PATTERN)",
					},
				},
			},
		},
	}
}

// loadConfig reads the environment, then applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if v := c.String("index"); v != "" {
		cfg.IndexName = v
	}
	if v := c.String("pattern"); v != "" {
		cfg.IndexPattern = v
	}
	return cfg, nil
}

// runContext cancels on the first interrupt; the driver finishes the
// in-flight batch before exiting. A second interrupt kills the process.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func reembedCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if v := c.String("progress-file"); v != "" {
		cfg.ProgressFile = v
	}
	if v := c.Int("batch-size"); v > 0 {
		cfg.BatchSize = v
	}

	ctx, stop := runContext()
	defer stop()

	r, err := revec.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	store, err := reembed.OpenProgressStore(cfg.ProgressFile)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(os.Stderr, "Cluster: %s\n", cfg.OpenSearchHost)
	fmt.Fprintf(os.Stderr, "Index: %s\n", cfg.IndexName)
	fmt.Fprintf(os.Stderr, "Embedding provider: %s\n", cfg.EmbeddingProvider)
	fmt.Fprintf(os.Stderr, "Progress file: %s\n", cfg.ProgressFile)
	fmt.Fprintln(os.Stderr)

	if err := r.NewReembedder(store, os.Stderr).Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted; progress saved, re-run to resume")
			return nil
		}
		return fmt.Errorf("re-embedding failed: %w", err)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()

	r, err := revec.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	summary, err := report.Collect(ctx, r.Stats(), cfg.IndexName, cfg.ProgressFile)
	if err != nil {
		return fmt.Errorf("status report failed: %w", err)
	}

	if c.Bool("json") {
		return summary.WriteJSON(os.Stdout)
	}
	return summary.WriteText(os.Stdout)
}

func normalizePhonesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if v := c.Int("page-size"); v > 0 {
		cfg.NormalizePageSize = v
	}
	if v := c.Int("workers"); v > 0 {
		cfg.NormalizeWorkers = v
	}

	ctx, stop := runContext()
	defer stop()

	r, err := revec.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(os.Stderr, "Normalizing phones across %s\n", cfg.IndexPattern)

	normalizer := admin.NewPhoneNormalizer(r.Phones(), cfg.NormalizePageSize, cfg.NormalizeWorkers, os.Stderr)
	if _, err := normalizer.Run(ctx); err != nil {
		return fmt.Errorf("phone normalization failed: %w", err)
	}
	return nil
}

func importAgentsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()

	r, err := revec.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	stats, err := admin.NewAgentImporter(r.Agents()).ImportFile(ctx, c.String("file"))
	if err != nil {
		return fmt.Errorf("agent import failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d agents (%d skipped, %d rejected)\n",
		stats.Imported, stats.Skipped, stats.Rejected)
	if stats.Total >= 0 {
		fmt.Fprintf(os.Stderr, "Agents index now holds %d documents\n", stats.Total)
	}
	return nil
}

func setupTemplateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()

	r, err := revec.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	name := c.String("name")
	if err := admin.InstallListingTemplate(ctx, r.Client(), name, cfg.IndexPattern); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Template %q installed for pattern %q\n", name, cfg.IndexPattern)
	fmt.Fprintln(os.Stderr, "New indices matching the pattern pick it up automatically; existing ones need a reindex")
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}
