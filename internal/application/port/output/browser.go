package output

import (
	"context"
	"time"

	"common-library/internal/domain/entity"
)

// ElementPort is a handle to a DOM node owned by the browser session.
type ElementPort interface {
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
	InnerText(ctx context.Context) (string, error)
	Type(ctx context.Context, text string) error
}

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	WaitNavigated(ctx context.Context) error

	WaitElement(ctx context.Context, selector string, timeout time.Duration) (ElementPort, error)
	WaitXPath(ctx context.Context, xpath string, timeout time.Duration) (ElementPort, error)

	// Alert blocks until the user dismisses the dialog.
	Alert(ctx context.Context, message string) error

	GetPageContent(ctx context.Context) (*entity.PageContent, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
