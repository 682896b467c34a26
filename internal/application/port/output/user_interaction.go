package output

import "context"

// UserInteractionPort pauses a session until a person confirms.
type UserInteractionPort interface {
	WaitForUserAction(ctx context.Context, message string) error
}
