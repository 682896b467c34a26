package rod

import (
	"context"
	"fmt"

	"common-library/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.ElementPort = (*Element)(nil)

// Element adapts *rod.Element to the element port.
type Element struct {
	el *rod.Element
}

func (e *Element) bind(ctx context.Context) *rod.Element {
	if ctx == nil {
		return e.el
	}
	return e.el.Context(ctx)
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	if err := e.bind(ctx).ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view failed: %w", err)
	}
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.bind(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	text, err := e.bind(ctx).Text()
	if err != nil {
		return "", fmt.Errorf("failed to get inner text: %w", err)
	}
	return text, nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	if err := e.bind(ctx).Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}
