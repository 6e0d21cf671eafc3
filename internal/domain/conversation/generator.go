package conversation

import "context"

// TextGenerator produces assistant text from an external model.
type TextGenerator interface {
	// GenerateReply answers text given the prior transcript. The reply is returned verbatim.
	GenerateReply(ctx context.Context, text string, history []*Message) (string, error)
	// GenerateTitle returns a short, trimmed title for a conversation opening with seed.
	GenerateTitle(ctx context.Context, seed string) (string, error)
}
