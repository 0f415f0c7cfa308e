// Package docs turns raw extraction payloads into domain records. Each
// interpreter owns one OCR model configuration and the candidate keys its
// logical fields may appear under in the backend schema.
package docs

import (
	"context"

	"github.com/d1ced/insurance-bot/internal/model/session"
	"github.com/d1ced/insurance-bot/internal/service/ocr"
)

// Interpreter produces a partial extraction record from a document image.
type Interpreter interface {
	Extract(ctx context.Context, image []byte) (session.Record, error)
}

// jobClient is the slice of ocr.Client the interpreters consume; narrowed to
// an interface so tests can stub the wire protocol.
type jobClient interface {
	SubmitAndAwait(ctx context.Context, image []byte, filename string) (ocr.Payload, error)
}

// resultFields navigates to the field mapping of a prediction payload. An
// absent path yields nil: partial backend responses must not abort the user
// flow, the session simply shows nothing for the missing fields.
func resultFields(payload ocr.Payload) map[string]any {
	return payload.Fields("inference", "result", "fields")
}
