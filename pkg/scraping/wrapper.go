package scraping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"common-library/internal/application/port/output"
	"common-library/internal/domain/entity"
	rodadapter "common-library/internal/infrastructure/browser/rod"
	"common-library/internal/infrastructure/browser/htmlclean"
	"common-library/internal/infrastructure/logger"
	"common-library/internal/infrastructure/retry"
	"common-library/internal/infrastructure/userinteraction"
)

const (
	DefaultElementTimeout = time.Second
	DefaultDialogMessage  = "Please press OK to continue."
)

// RetryPolicy controls how often each browser call is attempted.
type RetryPolicy = retry.Policy

// ScrapeOption configures a ScrapingWrapper. The zero value is usable.
type ScrapeOption struct {
	// DomDefs maps aliases to CSS selectors.
	DomDefs map[string]string
	// Headless defaults to true.
	Headless *bool
	// WindowSize is left to the browser when nil.
	WindowSize *entity.WindowSize

	// Retry defaults to 5 attempts, 2s apart.
	Retry RetryPolicy
	// ElementTimeout bounds a single element lookup attempt.
	ElementTimeout time.Duration

	// NoSandbox disables the Chrome sandbox, needed when running as root in
	// containers.
	NoSandbox bool
	// BrowserBin overrides the browser executable.
	BrowserBin string

	Logger output.LoggerPort
	// Prompter replaces browser dialogs in headless sessions. Defaults to
	// the console.
	Prompter output.UserInteractionPort
}

func (o ScrapeOption) withDefaults() ScrapeOption {
	if o.DomDefs == nil {
		o.DomDefs = map[string]string{}
	}
	if o.Headless == nil {
		o.Headless = Bool(true)
	}
	o.Retry = o.Retry.Normalize()
	if o.ElementTimeout <= 0 {
		o.ElementTimeout = DefaultElementTimeout
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if o.Prompter == nil {
		o.Prompter = userinteraction.NewConsoleUserInteraction()
	}
	return o
}

// ScrapingWrapper drives one page of one browser. It is not safe for
// concurrent use.
type ScrapingWrapper struct {
	browser        output.BrowserPort
	domDefs        map[string]string
	headless       bool
	retry          RetryPolicy
	elementTimeout time.Duration
	log            output.LoggerPort
	prompter       output.UserInteractionPort
	closed         bool
}

// New launches a browser and opens a blank page.
func New(ctx context.Context, opt ScrapeOption) (*ScrapingWrapper, error) {
	opt = opt.withDefaults()

	cfg := rodadapter.DefaultConfig()
	cfg.Headless = *opt.Headless
	cfg.WindowSize = opt.WindowSize
	cfg.NoSandbox = opt.NoSandbox
	cfg.Bin = opt.BrowserBin

	browser, err := rodadapter.NewBrowserAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opt.Logger.Info("browser started", "headless", cfg.Headless, "aliases", len(opt.DomDefs))
	return newWrapper(browser, opt), nil
}

// NewWithBrowser wraps an already running browser session.
func NewWithBrowser(browser output.BrowserPort, opt ScrapeOption) *ScrapingWrapper {
	return newWrapper(browser, opt.withDefaults())
}

func newWrapper(browser output.BrowserPort, opt ScrapeOption) *ScrapingWrapper {
	defs := make(map[string]string, len(opt.DomDefs))
	for k, v := range opt.DomDefs {
		defs[k] = v
	}

	return &ScrapingWrapper{
		browser:        browser,
		domDefs:        defs,
		headless:       *opt.Headless,
		retry:          opt.Retry,
		elementTimeout: opt.ElementTimeout,
		log:            opt.Logger,
		prompter:       opt.Prompter,
	}
}

// Go navigates to url and waits until the page has loaded.
func (w *ScrapingWrapper) Go(ctx context.Context, url string) error {
	if w.closed {
		return ErrClosed
	}

	err := retry.DoErr(ctx, w.retry, w.log, "go", func() error {
		return w.browser.Navigate(ctx, url)
	})
	if err != nil {
		return fmt.Errorf("go %s: %w", url, err)
	}

	w.log.Debug("navigated", "url", url)
	return nil
}

// ShowDialogAndWait shows message, or DefaultDialogMessage when empty, and
// blocks until the user confirms. Headless sessions ask on the console.
func (w *ScrapingWrapper) ShowDialogAndWait(ctx context.Context, message string) error {
	if w.closed {
		return ErrClosed
	}
	if message == "" {
		message = DefaultDialogMessage
	}

	w.log.Info("waiting for user", "message", message, "headless", w.headless)

	if w.headless {
		return w.prompter.WaitForUserAction(ctx, message)
	}
	return w.browser.Alert(ctx, message)
}

// Selector returns the CSS selector registered for target.
func (w *ScrapingWrapper) Selector(target string) (string, error) {
	selector, ok := w.domDefs[target]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return selector, nil
}

// GetDom waits for the element behind the alias target and scrolls it into
// view.
func (w *ScrapingWrapper) GetDom(ctx context.Context, target string) (output.ElementPort, error) {
	if w.closed {
		return nil, ErrClosed
	}

	selector, err := w.Selector(target)
	if err != nil {
		return nil, err
	}

	el, err := retry.Do(ctx, w.retry, w.log, "get_dom", func() (output.ElementPort, error) {
		return w.find(ctx, selector)
	})
	if err != nil {
		return nil, fmt.Errorf("get dom %s: %w", target, err)
	}
	return el, nil
}

func (w *ScrapingWrapper) find(ctx context.Context, selector string) (output.ElementPort, error) {
	el, err := w.browser.WaitElement(ctx, selector, w.elementTimeout)
	if err != nil {
		return nil, err
	}
	if err := el.ScrollIntoView(ctx); err != nil {
		return nil, err
	}
	return el, nil
}

// Click clicks el and waits for any navigation it triggers.
func (w *ScrapingWrapper) Click(ctx context.Context, el output.ElementPort) error {
	if w.closed {
		return ErrClosed
	}

	err := retry.DoErr(ctx, w.retry, w.log, "click", func() error {
		if err := el.Click(ctx); err != nil {
			return err
		}
		return w.browser.WaitNavigated(ctx)
	})
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// GetInnerText returns the rendered text of the element behind target.
func (w *ScrapingWrapper) GetInnerText(ctx context.Context, target string) (string, error) {
	if w.closed {
		return "", ErrClosed
	}

	selector, err := w.Selector(target)
	if err != nil {
		return "", err
	}

	text, err := retry.Do(ctx, w.retry, w.log, "get_inner_text", func() (string, error) {
		el, err := w.find(ctx, selector)
		if err != nil {
			return "", err
		}
		return el.InnerText(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("get inner text %s: %w", target, err)
	}
	return text, nil
}

// FillTextbox types content into el.
func (w *ScrapingWrapper) FillTextbox(ctx context.Context, el output.ElementPort, content string) error {
	if w.closed {
		return ErrClosed
	}

	err := retry.DoErr(ctx, w.retry, w.log, "fill_textbox", func() error {
		return el.Type(ctx, content)
	})
	if err != nil {
		return fmt.Errorf("fill textbox: %w", err)
	}
	return nil
}

// GetDomByText finds the index-th (1-based) tagName element whose own text,
// whitespace-normalized, equals searchText. An empty tagName matches any tag
// and an index below 1 means the first match.
func (w *ScrapingWrapper) GetDomByText(ctx context.Context, searchText, tagName string, index int) (output.ElementPort, error) {
	if w.closed {
		return nil, ErrClosed
	}

	xpath := TextXPath(searchText, tagName, index)

	el, err := retry.Do(ctx, w.retry, w.log, "get_dom_by_text", func() (output.ElementPort, error) {
		el, err := w.browser.WaitXPath(ctx, xpath, w.elementTimeout)
		if err != nil {
			return nil, err
		}
		if err := el.ScrollIntoView(ctx); err != nil {
			return nil, err
		}
		return el, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get dom by text %q: %w", searchText, err)
	}
	return el, nil
}

// TextXPath builds the query used by GetDomByText.
func TextXPath(searchText, tagName string, index int) string {
	if tagName == "" {
		tagName = "*"
	}
	if index < 1 {
		index = 1
	}
	return fmt.Sprintf("(//%s[normalize-space(text())=%s])[%d]", tagName, xpathLiteral(searchText), index)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Operate runs operations in order and stops at the first failure, which is
// returned as an *OperationError.
func (w *ScrapingWrapper) Operate(ctx context.Context, operations []Operation) error {
	for i, op := range operations {
		if err := ctx.Err(); err != nil {
			return &OperationError{Index: i, Operation: op, Err: err}
		}

		w.log.Debug("operation", "index", i, "method", op.Method.String(), "target", op.Target)

		if err := w.apply(ctx, op); err != nil {
			w.log.Error("operation failed", "index", i, "method", op.Method.String(), "target", op.Target, "error", err)
			return &OperationError{Index: i, Operation: op, Err: err}
		}
	}
	return nil
}

func (w *ScrapingWrapper) apply(ctx context.Context, op Operation) error {
	switch op.Method {
	case Go:
		return w.Go(ctx, op.Target)
	case Click:
		el, err := w.GetDom(ctx, op.Target)
		if err != nil {
			return err
		}
		return w.Click(ctx, el)
	case Fill:
		if op.Content == nil {
			w.log.Debug("fill without content skipped", "target", op.Target)
			return nil
		}
		el, err := w.GetDom(ctx, op.Target)
		if err != nil {
			return err
		}
		return w.FillTextbox(ctx, el, *op.Content)
	case Wait:
		var message string
		if op.Content != nil {
			message = *op.Content
		}
		return w.ShowDialogAndWait(ctx, message)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(op.Method))
	}
}

// PageHTML returns the body of the current page without scripts, styles,
// comments and presentation attributes.
func (w *ScrapingWrapper) PageHTML(ctx context.Context) (string, error) {
	if w.closed {
		return "", ErrClosed
	}

	content, err := retry.Do(ctx, w.retry, w.log, "page_html", func() (*entity.PageContent, error) {
		return w.browser.GetPageContent(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}

	return htmlclean.Clean(content.HTML, htmlclean.DefaultConfig())
}

// Screenshot captures the full scrollable page as JPEG, scaled down to at
// most 1024 pixels wide.
func (w *ScrapingWrapper) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if w.closed {
		return nil, ErrClosed
	}

	shot, err := retry.Do(ctx, w.retry, w.log, "screenshot", func() (*entity.Screenshot, error) {
		return w.browser.Screenshot(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return shot, nil
}

// CurrentURL returns the URL of the page, or "" once the wrapper is closed.
func (w *ScrapingWrapper) CurrentURL() string {
	if w.closed {
		return ""
	}
	return w.browser.CurrentURL()
}

// Close shuts the browser down. Further calls return ErrClosed.
func (w *ScrapingWrapper) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.browser.Close()
	w.log.Debug("browser closed")
}
