package scraping

import (
	"fmt"
	"strings"
)

// OperationMethod is the kind of step an Operation performs.
type OperationMethod int

const (
	// Go navigates to Target, a URL.
	Go OperationMethod = iota
	// Click clicks the element behind the alias in Target.
	Click
	// Fill types Content into the element behind the alias in Target.
	Fill
	// Wait shows Content as a dialog and blocks until the user dismisses it.
	Wait
)

var methodNames = map[OperationMethod]string{
	Go:    "go",
	Click: "click",
	Fill:  "fill",
	Wait:  "wait",
}

func (m OperationMethod) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("OperationMethod(%d)", int(m))
}

func ParseOperationMethod(s string) (OperationMethod, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func (m OperationMethod) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *OperationMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Operation is one step of a scripted session.
type Operation struct {
	Method OperationMethod `yaml:"method"`
	// Target is a URL for Go and a DOM alias for Click and Fill.
	Target string `yaml:"target"`
	// Content is the text for Fill and the message for Wait. A Fill without
	// content is skipped.
	Content *string `yaml:"content,omitempty"`
}

func (o Operation) String() string {
	if o.Content != nil {
		return fmt.Sprintf("%s %s %q", o.Method, o.Target, *o.Content)
	}
	return fmt.Sprintf("%s %s", o.Method, o.Target)
}

// String returns a pointer to s, for Operation.Content.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b, for ScrapeOption.Headless.
func Bool(b bool) *bool {
	return &b
}
