package docs

import (
	"context"

	"github.com/d1ced/insurance-bot/internal/model/session"
	"github.com/d1ced/insurance-bot/internal/service/ocr"
)

var (
	givenNamesKeys = []string{"given_names", "given_name", "first_name", "names"}
	surnameKeys    = []string{"surnames", "surname", "last_name", "family_name"}
	documentKeys   = []string{"document_number", "id_number", "passport_number", "number"}
)

// PassportInterpreter extracts identity fields from a passport image.
type PassportInterpreter struct {
	client jobClient
}

// NewPassportInterpreter wires the interpreter to its extraction model.
func NewPassportInterpreter(config ocr.Config) (*PassportInterpreter, error) {
	client, err := ocr.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &PassportInterpreter{client: client}, nil
}

// Extract runs the extraction protocol and resolves the identity fields.
// Missing fields stay blank in the record; backend failures propagate.
func (p *PassportInterpreter) Extract(ctx context.Context, image []byte) (session.Record, error) {
	payload, err := p.client.SubmitAndAwait(ctx, image, "passport.jpg")
	if err != nil {
		return session.Record{}, err
	}

	fields := resultFields(payload)
	var record session.Record
	record.GivenNames, _ = ocr.FirstScalar(fields, givenNamesKeys...)
	record.Surname, _ = ocr.FirstScalar(fields, surnameKeys...)
	record.DocumentNumber, _ = ocr.FirstScalar(fields, documentKeys...)
	return record, nil
}
