package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"common-library/internal/application/port/output"
	"common-library/internal/domain/entity"
	"common-library/internal/infrastructure/retry"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultSettleTimeout = 2 * time.Second
	maxScreenshotWidth   = 1024
	navigationPoll       = 100 * time.Millisecond
)

var ErrBrowserClosed = errors.New("browser is closed")

var _ output.BrowserPort = (*BrowserAdapter)(nil)

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	settle   time.Duration

	mu     sync.Mutex
	closed bool
}

type BrowserConfig struct {
	Headless bool
	// WindowSize is left to the browser when nil.
	WindowSize *entity.WindowSize
	// Timeout bounds navigation and page-level waits.
	Timeout time.Duration
	// SettleTimeout bounds the idle wait after clicks.
	SettleTimeout time.Duration
	SlowMotion    time.Duration
	NoSandbox     bool
	// Bin overrides the browser executable; rod downloads Chromium when empty
	// and no system browser is found.
	Bin string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:      true,
		Timeout:       defaultTimeout,
		SettleTimeout: defaultSettleTimeout,
	}
}

// NewBrowserAdapter launches the browser. The process lives until Close; ctx
// is not bound to it.
func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = defaultSettleTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("disable-dev-shm-usage").
		Set("no-first-run").
		Set("no-default-browser-check")

	if cfg.WindowSize != nil {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowSize.Width, cfg.WindowSize.Height))
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if cfg.WindowSize != nil {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  cfg.WindowSize.Width,
			Height: cfg.WindowSize.Height,
		})
		if err != nil {
			_ = browser.Close()
			l.Kill()
			l.Cleanup()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		settle:   cfg.SettleTimeout,
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

// pageFor returns the page bound to ctx. Once Close was called it returns
// ErrBrowserClosed marked permanent, so callers stop retrying.
func (b *BrowserAdapter) pageFor(ctx context.Context) (*rod.Page, error) {
	if !b.IsReady() {
		return nil, retry.Permanent(ErrBrowserClosed)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return b.page.Context(ctx), nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	page, err := b.pageFor(ctx)
	if err != nil {
		return err
	}

	page = page.Timeout(b.timeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load failed: %w", err)
	}
	return nil
}

// WaitNavigated lets the page settle after an interaction and waits for the
// document that is current afterwards to finish loading.
func (b *BrowserAdapter) WaitNavigated(ctx context.Context) error {
	page, err := b.pageFor(ctx)
	if err != nil {
		return err
	}

	_ = page.WaitIdle(b.settle)

	page = page.Timeout(b.timeout)
	defer page.CancelTimeout()

	// The old document's execution context disappears mid-navigation, so
	// WaitLoad can fail until the new one exists.
	for {
		err := page.WaitLoad()
		if err == nil {
			return nil
		}
		if page.GetContext().Err() != nil {
			return fmt.Errorf("wait for load failed: %w", err)
		}
		time.Sleep(navigationPoll)
	}
}

func (b *BrowserAdapter) WaitElement(ctx context.Context, selector string, timeout time.Duration) (output.ElementPort, error) {
	page, err := b.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	el, err := page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return &Element{el: el.CancelTimeout()}, nil
}

func (b *BrowserAdapter) WaitXPath(ctx context.Context, xpath string, timeout time.Duration) (output.ElementPort, error) {
	page, err := b.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	el, err := page.Timeout(timeout).ElementX(xpath)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", xpath, err)
	}
	return &Element{el: el.CancelTimeout()}, nil
}

// Alert shows a native dialog. The evaluation only returns once the dialog
// is dismissed.
func (b *BrowserAdapter) Alert(ctx context.Context, message string) error {
	page, err := b.pageFor(ctx)
	if err != nil {
		return err
	}

	if _, err := page.Eval(`(msg) => alert(msg)`, message); err != nil {
		return fmt.Errorf("alert failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) GetPageContent(ctx context.Context) (*entity.PageContent, error) {
	page, err := b.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get page info: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}

	return &entity.PageContent{
		URL:   info.URL,
		Title: info.Title,
		HTML:  html,
	}, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	page, err := b.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	imgBytes, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	if !b.IsReady() {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
