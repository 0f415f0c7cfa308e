package flow

import "context"

// Inbound is one user message as delivered by the transport. Image bytes are
// fetched lazily so the transport only downloads the photo when the workflow
// actually needs it.
type Inbound struct {
	ChatID   int64
	Text     string
	HasImage bool
	Image    func(ctx context.Context) ([]byte, error)
}

// Sender pushes a text message back to the conversation. Send failures are
// best-effort from the workflow's point of view: logged, never retried, and
// never allowed to undo state already committed.
type Sender interface {
	Send(chatID int64, text string) error
}
