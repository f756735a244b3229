package analysis

import "context"

// Client sends one single-turn prompt to a chat-completion endpoint and
// returns the raw reply text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
