package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"common-library/internal/di"
	"common-library/internal/infrastructure/env"
	"common-library/internal/infrastructure/scenario"
	"common-library/pkg/scraping"

	"github.com/spf13/cobra"
)

type runOptions struct {
	screenshot string
	html       string
	timeout    time.Duration
	verbose    bool
}

func NewRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run the operations of a scenario and print its extracts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			return runScenario(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.screenshot, "screenshot", "", "Write a JPEG screenshot of the final page to this path")
	cmd.Flags().StringVar(&opts.html, "html", "", "Write the cleaned HTML of the final page to this path")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Minute, "Abort the session after this long")

	return cmd
}

type extract struct {
	Alias string
	Text  string
}

func runScenario(ctx context.Context, out io.Writer, path string, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	envService := env.NewEnvService()
	cfg := di.LoadConfig(envService)
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	log, err := di.NewLogger(cfg.Log, envService, s.Name)
	if err != nil {
		return err
	}
	log.Debug("environment loaded", "app_env", envService.AppEnv(), "files", envService.Loaded())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	container, err := di.NewContainer(ctx, log, s.Apply(cfg.Options))
	if err != nil {
		_ = log.Close()
		return err
	}
	defer container.Close()

	log.Info("scenario started", "scenario", s.Name, "operations", len(s.Operations))
	start := time.Now()

	if err := container.Scraper.Operate(ctx, s.Operations); err != nil {
		log.Error("scenario failed", "scenario", s.Name, "error", err)
		return err
	}

	results, err := collectExtracts(ctx, container.Scraper, s.Extract)
	if err != nil {
		return err
	}
	writeExtracts(out, results)

	if err := saveArtifacts(ctx, container.Scraper, opts); err != nil {
		return err
	}

	log.Info("scenario completed", "scenario", s.Name, "duration", time.Since(start), "url", container.Scraper.CurrentURL())
	return nil
}

type textSource interface {
	GetInnerText(ctx context.Context, target string) (string, error)
}

func collectExtracts(ctx context.Context, src textSource, aliases []string) ([]extract, error) {
	results := make([]extract, 0, len(aliases))
	for _, alias := range aliases {
		text, err := src.GetInnerText(ctx, alias)
		if err != nil {
			return nil, err
		}
		results = append(results, extract{Alias: alias, Text: text})
	}
	return results, nil
}

func writeExtracts(w io.Writer, results []extract) {
	for _, r := range results {
		fmt.Fprintf(w, "%s: %s\n", r.Alias, r.Text)
	}
}

func saveArtifacts(ctx context.Context, scraper *scraping.ScrapingWrapper, opts runOptions) error {
	if opts.screenshot != "" {
		shot, err := scraper.Screenshot(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.screenshot, shot.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
	}

	if opts.html != "" {
		html, err := scraper.PageHTML(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.html, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write html: %w", err)
		}
	}
	return nil
}
