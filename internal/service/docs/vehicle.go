package docs

import (
	"context"
	"strings"

	"github.com/d1ced/insurance-bot/internal/model/session"
	"github.com/d1ced/insurance-bot/internal/service/ocr"
)

var (
	brandKeys = []string{"brand", "make", "manufacturer"}
	modelKeys = []string{"model", "commercial_name", "vehicle_model"}
	plateKeys = []string{"license_plate", "registration_number", "plate_number", "vrm"}
)

// VehicleInterpreter extracts vehicle fields from a registration document image.
type VehicleInterpreter struct {
	client jobClient
}

// NewVehicleInterpreter wires the interpreter to its extraction model.
func NewVehicleInterpreter(config ocr.Config) (*VehicleInterpreter, error) {
	client, err := ocr.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &VehicleInterpreter{client: client}, nil
}

// Extract runs the extraction protocol and resolves the vehicle fields.
func (v *VehicleInterpreter) Extract(ctx context.Context, image []byte) (session.Record, error) {
	payload, err := v.client.SubmitAndAwait(ctx, image, "vehicle.jpg")
	if err != nil {
		return session.Record{}, err
	}

	fields := resultFields(payload)
	brand, _ := ocr.FirstScalar(fields, brandKeys...)
	model, _ := ocr.FirstScalar(fields, modelKeys...)
	plate, _ := ocr.FirstScalar(fields, plateKeys...)

	return session.Record{
		VehicleDescription: joinDescription(brand, model),
		LicensePlate:       stripWhitespace(plate),
	}, nil
}

// joinDescription concatenates brand and model with one space when both are
// present, otherwise returns whichever is present.
func joinDescription(brand, model string) string {
	switch {
	case brand != "" && model != "":
		return brand + " " + model
	case brand != "":
		return brand
	default:
		return model
	}
}

// stripWhitespace removes internal whitespace from plate text.
func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
