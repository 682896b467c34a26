package di

import (
	"context"
	"fmt"
	"time"

	"common-library/internal/application/port/output"
	"common-library/internal/domain/entity"
	"common-library/internal/infrastructure/logger"
	"common-library/internal/infrastructure/retry"
	"common-library/pkg/scraping"
)

type Container struct {
	Logger  output.LoggerPort
	Scraper *scraping.ScrapingWrapper
}

type Config struct {
	Log     logger.Config
	Options scraping.ScrapeOption
}

// LoadConfig reads SCRAPE_* and LOG_* settings.
func LoadConfig(env output.ConfigPort) Config {
	delay := env.GetDuration("SCRAPE_RETRY_DELAY", retry.DefaultDelay)
	if delay == 0 {
		// An explicit zero means no pause; the policy reads zero as unset.
		delay = -1
	}

	opt := scraping.ScrapeOption{
		Headless: scraping.Bool(env.GetBool("SCRAPE_HEADLESS", true)),
		Retry: retry.Policy{
			Attempts: env.GetInt("SCRAPE_RETRY_ATTEMPTS", retry.DefaultAttempts),
			Delay:    delay,
		},
		ElementTimeout: env.GetDuration("SCRAPE_ELEMENT_TIMEOUT", scraping.DefaultElementTimeout),
		NoSandbox:      env.GetBool("SCRAPE_NO_SANDBOX", false),
		BrowserBin:     env.Get("SCRAPE_BROWSER_BIN"),
	}

	width := env.GetInt("SCRAPE_WINDOW_WIDTH", 0)
	height := env.GetInt("SCRAPE_WINDOW_HEIGHT", 0)
	if width > 0 && height > 0 {
		opt.WindowSize = &entity.WindowSize{Width: width, Height: height}
	}

	return Config{
		Log: logger.Config{
			Level:  env.GetWithDefault("LOG_LEVEL", "info"),
			Format: env.GetWithDefault("LOG_FORMAT", "console"),
			File:   env.Get("LOG_FILE"),
		},
		Options: opt,
	}
}

// NewLogger builds the process logger, writing a per-run file under
// LOG_DIR when no explicit file is configured.
func NewLogger(cfg logger.Config, env output.ConfigPort, runName string) (*logger.LoggerAdapter, error) {
	if cfg.File == "" {
		if dir := env.Get("LOG_DIR"); dir != "" {
			cfg.File = logger.RunLogFile(dir, runName, time.Now())
		}
	}
	log, err := logger.NewLoggerAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func NewContainer(ctx context.Context, log output.LoggerPort, opt scraping.ScrapeOption) (*Container, error) {
	opt.Logger = log

	scraper, err := scraping.New(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	return &Container{
		Logger:  log,
		Scraper: scraper,
	}, nil
}

func (c *Container) Close() {
	if c.Scraper != nil {
		c.Scraper.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
