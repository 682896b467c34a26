package scraping

import (
	"context"
	"errors"
	"testing"
	"time"

	"common-library/internal/application/port/output"
	"common-library/internal/domain/entity"
	"common-library/internal/infrastructure/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotYet = errors.New("not rendered yet")

type fakeElement struct {
	text     string
	typed    []string
	clicks   int
	scrolls  int
	clickErr error
}

func (e *fakeElement) ScrollIntoView(ctx context.Context) error {
	e.scrolls++
	return nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.clicks++
	return e.clickErr
}

func (e *fakeElement) InnerText(ctx context.Context) (string, error) {
	return e.text, nil
}

func (e *fakeElement) Type(ctx context.Context, text string) error {
	e.typed = append(e.typed, text)
	e.text += text
	return nil
}

type fakeBrowser struct {
	// elements is keyed by CSS selector or XPath.
	elements map[string]*fakeElement
	// pending makes the first n lookups of a key fail.
	pending map[string]int

	navigated     []string
	navErr        error
	waitNavigated int
	alerts        []string
	lookups       []string
	timeouts      []time.Duration
	html          string
	closed        bool
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		elements: map[string]*fakeElement{},
		pending:  map[string]int{},
	}
}

func (b *fakeBrowser) Navigate(ctx context.Context, url string) error {
	b.navigated = append(b.navigated, url)
	return b.navErr
}

func (b *fakeBrowser) WaitNavigated(ctx context.Context) error {
	b.waitNavigated++
	return nil
}

func (b *fakeBrowser) lookup(key string, timeout time.Duration) (output.ElementPort, error) {
	b.lookups = append(b.lookups, key)
	b.timeouts = append(b.timeouts, timeout)
	if b.pending[key] > 0 {
		b.pending[key]--
		return nil, errNotYet
	}
	el, ok := b.elements[key]
	if !ok {
		return nil, errNotYet
	}
	return el, nil
}

func (b *fakeBrowser) WaitElement(ctx context.Context, selector string, timeout time.Duration) (output.ElementPort, error) {
	return b.lookup(selector, timeout)
}

func (b *fakeBrowser) WaitXPath(ctx context.Context, xpath string, timeout time.Duration) (output.ElementPort, error) {
	return b.lookup(xpath, timeout)
}

func (b *fakeBrowser) Alert(ctx context.Context, message string) error {
	b.alerts = append(b.alerts, message)
	return nil
}

func (b *fakeBrowser) GetPageContent(ctx context.Context) (*entity.PageContent, error) {
	return &entity.PageContent{URL: b.CurrentURL(), HTML: b.html}, nil
}

func (b *fakeBrowser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Data: []byte{0xff, 0xd8}, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (b *fakeBrowser) CurrentURL() string {
	if len(b.navigated) == 0 {
		return "about:blank"
	}
	return b.navigated[len(b.navigated)-1]
}

func (b *fakeBrowser) Close() {
	b.closed = true
}

type fakePrompter struct {
	messages []string
}

func (p *fakePrompter) WaitForUserAction(ctx context.Context, message string) error {
	p.messages = append(p.messages, message)
	return nil
}

func newTestWrapper(b *fakeBrowser, defs map[string]string) (*ScrapingWrapper, *fakePrompter) {
	prompter := &fakePrompter{}
	w := NewWithBrowser(b, ScrapeOption{
		DomDefs:  defs,
		Retry:    RetryPolicy{Attempts: 3, Delay: time.Millisecond},
		Prompter: prompter,
	})
	return w, prompter
}

func TestScrapeOption_Defaults(t *testing.T) {
	opt := ScrapeOption{}.withDefaults()

	assert.NotNil(t, opt.DomDefs)
	require.NotNil(t, opt.Headless)
	assert.True(t, *opt.Headless)
	assert.Nil(t, opt.WindowSize)
	assert.Equal(t, 5, opt.Retry.Attempts)
	assert.Equal(t, 2*time.Second, opt.Retry.Delay)
	assert.Equal(t, DefaultElementTimeout, opt.ElementTimeout)
	assert.NotNil(t, opt.Logger)
	assert.NotNil(t, opt.Prompter)
}

func TestScrapingWrapper_Go(t *testing.T) {
	b := newFakeBrowser()
	w, _ := newTestWrapper(b, nil)

	require.NoError(t, w.Go(context.Background(), "https://example.com/"))
	assert.Equal(t, []string{"https://example.com/"}, b.navigated)
	assert.Equal(t, "https://example.com/", w.CurrentURL())
}

func TestScrapingWrapper_Go_RetriesThenFails(t *testing.T) {
	b := newFakeBrowser()
	b.navErr = errors.New("net::ERR_CONNECTION_REFUSED")
	w, _ := newTestWrapper(b, nil)

	err := w.Go(context.Background(), "http://localhost:1/")
	assert.ErrorIs(t, err, b.navErr)
	assert.Len(t, b.navigated, 3)
}

func TestScrapingWrapper_Go_PermanentErrorIsNotRetried(t *testing.T) {
	b := newFakeBrowser()
	errGone := errors.New("browser is closed")
	b.navErr = retry.Permanent(errGone)
	w, _ := newTestWrapper(b, nil)

	err := w.Go(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, errGone)
	assert.Len(t, b.navigated, 1)
}

func TestScrapingWrapper_GetDom(t *testing.T) {
	b := newFakeBrowser()
	el := &fakeElement{}
	b.elements["#q"] = el
	b.pending["#q"] = 2
	w, _ := newTestWrapper(b, map[string]string{"search": "#q"})

	got, err := w.GetDom(context.Background(), "search")
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 1, el.scrolls)
	assert.Len(t, b.lookups, 3)
	assert.Equal(t, DefaultElementTimeout, b.timeouts[0])
}

func TestScrapingWrapper_GetDom_UnknownTargetIsNotRetried(t *testing.T) {
	b := newFakeBrowser()
	w, _ := newTestWrapper(b, map[string]string{"search": "#q"})

	_, err := w.GetDom(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Empty(t, b.lookups)
}

func TestScrapingWrapper_GetDom_Exhausted(t *testing.T) {
	b := newFakeBrowser()
	w, _ := newTestWrapper(b, map[string]string{"search": "#q"})

	_, err := w.GetDom(context.Background(), "search")
	assert.ErrorIs(t, err, errNotYet)
	assert.Len(t, b.lookups, 3)
}

func TestScrapingWrapper_Click(t *testing.T) {
	b := newFakeBrowser()
	el := &fakeElement{clickErr: errNotYet}
	w, _ := newTestWrapper(b, nil)

	err := w.Click(context.Background(), el)
	assert.ErrorIs(t, err, errNotYet)
	assert.Equal(t, 3, el.clicks)
	assert.Zero(t, b.waitNavigated)

	el.clickErr = nil
	require.NoError(t, w.Click(context.Background(), el))
	assert.Equal(t, 1, b.waitNavigated)
}

func TestScrapingWrapper_GetInnerText(t *testing.T) {
	b := newFakeBrowser()
	b.elements["h3"] = &fakeElement{text: "Example Domain"}
	b.pending["h3"] = 1
	w, _ := newTestWrapper(b, map[string]string{"first_result": "h3"})

	text, err := w.GetInnerText(context.Background(), "first_result")
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", text)
	assert.Len(t, b.lookups, 2)

	_, err = w.GetInnerText(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestScrapingWrapper_FillTextbox(t *testing.T) {
	b := newFakeBrowser()
	el := &fakeElement{}
	w, _ := newTestWrapper(b, nil)

	require.NoError(t, w.FillTextbox(context.Background(), el, "sample text"))
	assert.Equal(t, []string{"sample text"}, el.typed)
}

func TestTextXPath(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		tag   string
		index int
		want  string
	}{
		{"Defaults", "Next", "", 0, `(//*[normalize-space(text())='Next'])[1]`},
		{"Tag and index", "Next", "a", 2, `(//a[normalize-space(text())='Next'])[2]`},
		{"Single quote", "It's", "p", 1, `(//p[normalize-space(text())="It's"])[1]`},
		{"Both quotes", `It's "x"`, "", 1, `(//*[normalize-space(text())=concat('It', "'", 's "x"')])[1]`},
		{"Trailing quote", `say "hi" '`, "", 1, `(//*[normalize-space(text())=concat('say "hi" ', "'")])[1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextXPath(tt.text, tt.tag, tt.index))
		})
	}
}

func TestScrapingWrapper_GetDomByText(t *testing.T) {
	b := newFakeBrowser()
	el := &fakeElement{text: "Next"}
	b.elements[TextXPath("Next", "a", 1)] = el
	w, _ := newTestWrapper(b, nil)

	got, err := w.GetDomByText(context.Background(), "Next", "a", 0)
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 1, el.scrolls)
}

func TestScrapingWrapper_ShowDialogAndWait(t *testing.T) {
	t.Run("Headful uses browser alert", func(t *testing.T) {
		b := newFakeBrowser()
		prompter := &fakePrompter{}
		w := NewWithBrowser(b, ScrapeOption{Headless: Bool(false), Prompter: prompter})

		require.NoError(t, w.ShowDialogAndWait(context.Background(), ""))
		assert.Equal(t, []string{DefaultDialogMessage}, b.alerts)
		assert.Empty(t, prompter.messages)
	})

	t.Run("Headless uses prompter", func(t *testing.T) {
		b := newFakeBrowser()
		w, prompter := newTestWrapper(b, nil)

		require.NoError(t, w.ShowDialogAndWait(context.Background(), "Log in, then continue"))
		assert.Equal(t, []string{"Log in, then continue"}, prompter.messages)
		assert.Empty(t, b.alerts)
	})
}

func TestScrapingWrapper_Operate(t *testing.T) {
	b := newFakeBrowser()
	box := &fakeElement{}
	button := &fakeElement{}
	b.elements[`[title="Search"]`] = box
	b.elements["#submit"] = button

	w, prompter := newTestWrapper(b, map[string]string{
		"search_text_area": `[title="Search"]`,
		"search_button":    "#submit",
	})

	err := w.Operate(context.Background(), []Operation{
		{Method: Go, Target: "https://www.google.com/"},
		{Method: Fill, Target: "search_text_area", Content: String("sample text")},
		{Method: Fill, Target: "search_text_area"},
		{Method: Click, Target: "search_button"},
		{Method: Wait, Content: String("check results")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.google.com/"}, b.navigated)
	assert.Equal(t, []string{"sample text"}, box.typed)
	assert.Equal(t, 1, button.clicks)
	assert.Equal(t, 1, b.waitNavigated)
	assert.Equal(t, []string{"check results"}, prompter.messages)
}

func TestScrapingWrapper_Operate_StopsAtFirstFailure(t *testing.T) {
	b := newFakeBrowser()
	w, _ := newTestWrapper(b, map[string]string{"known": "#known"})

	ops := []Operation{
		{Method: Go, Target: "https://example.com/"},
		{Method: Click, Target: "unknown"},
		{Method: Go, Target: "https://example.org/"},
	}
	err := w.Operate(context.Background(), ops)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, 1, opErr.Index)
	assert.Equal(t, ops[1], opErr.Operation)
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Equal(t, []string{"https://example.com/"}, b.navigated)
}

func TestScrapingWrapper_Operate_UnknownMethod(t *testing.T) {
	w, _ := newTestWrapper(newFakeBrowser(), nil)

	err := w.Operate(context.Background(), []Operation{{Method: OperationMethod(42)}})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestScrapingWrapper_Operate_CancelledContext(t *testing.T) {
	b := newFakeBrowser()
	w, _ := newTestWrapper(b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Operate(ctx, []Operation{{Method: Go, Target: "https://example.com/"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.navigated)
}

func TestScrapingWrapper_PageHTML(t *testing.T) {
	b := newFakeBrowser()
	b.html = `<html><head><title>t</title></head><body><p id="x" style="color:red">Hi</p><script>x()</script></body></html>`
	w, _ := newTestWrapper(b, nil)

	html, err := w.PageHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<body><p id="x">Hi</p></body>`, html)
}

func TestScrapingWrapper_Screenshot(t *testing.T) {
	w, _ := newTestWrapper(newFakeBrowser(), nil)

	shot, err := w.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", shot.Format)
}

func TestScrapingWrapper_Close(t *testing.T) {
	b := newFakeBrowser()
	w, _ := newTestWrapper(b, map[string]string{"a": "#a"})

	w.Close()
	w.Close()

	assert.True(t, b.closed)
	assert.ErrorIs(t, w.Go(context.Background(), "https://example.com/"), ErrClosed)
	_, err := w.GetDom(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = w.GetInnerText(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.ShowDialogAndWait(context.Background(), ""), ErrClosed)
	assert.Empty(t, w.CurrentURL())
}

func TestNewWithBrowser_CopiesDomDefs(t *testing.T) {
	defs := map[string]string{"a": "#a"}
	w, _ := newTestWrapper(newFakeBrowser(), defs)

	defs["a"] = "#changed"
	defs["b"] = "#b"

	sel, err := w.Selector("a")
	require.NoError(t, err)
	assert.Equal(t, "#a", sel)
	_, err = w.Selector("b")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}
