package userinteraction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"common-library/internal/application/port/output"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

// ConsoleUserInteraction stands in for browser dialogs when nobody can see
// the browser window.
type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer

	// A single goroutine owns reader; a wait abandoned on ctx leaves the
	// next line for the following wait.
	start   sync.Once
	lines   chan struct{}
	readErr error
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return New(os.Stdin, color.Output)
}

func New(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
		lines:  make(chan struct{}),
	}
}

// readLines signals one value per line read. lines is closed once the input
// fails or ends; readErr is set before that.
func (u *ConsoleUserInteraction) readLines() {
	for {
		if _, err := u.reader.ReadString('\n'); err != nil {
			u.readErr = err
			close(u.lines)
			return
		}
		u.lines <- struct{}{}
	}
}

// WaitForUserAction prints message and blocks until a line is read or ctx
// is done.
func (u *ConsoleUserInteraction) WaitForUserAction(ctx context.Context, message string) error {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "\n[USER ACTION REQUIRED] %s\n", message)

	dim := color.New(color.Faint)
	dim.Fprint(u.out, "Press Enter to continue...")

	u.start.Do(func() { go u.readLines() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(u.out)
		return ctx.Err()
	case _, ok := <-u.lines:
		if ok {
			return nil
		}
		if errors.Is(u.readErr, io.EOF) {
			fmt.Fprintln(u.out)
			return nil
		}
		return fmt.Errorf("failed to wait for user: %w", u.readErr)
	}
}
