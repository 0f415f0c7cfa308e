package flow

import (
	"fmt"
	"strings"

	"github.com/d1ced/insurance-bot/internal/model/session"
)

const (
	msgGreeting = "Hello! I can help you buy a car insurance policy. " +
		"First, please send me a photo of your passport."
	msgRestarted = "Workflow restarted. Send me any message to begin."

	msgPassportReminder = "When you are ready, please send a photo of your passport."
	msgVehicleReminder  = "When you are ready, please send a photo of your vehicle registration document."
	msgSendPhoto        = "Please send a photo of the document."

	msgConfirmPrompt = "Please reply yes or no."
	msgPriceFinal    = "The price is fixed, I am afraid. Reply yes to accept it, or /restart to start over."
	msgCompleted     = "Your policy has already been issued. Send /restart if you want to start over."

	msgExtractionApology = "Sorry, I could not process that document. Please try sending the photo again."
	msgPolicyApology     = "Sorry, I could not generate your policy right now. Please reply yes to try again."
	msgAnswerApology     = "Sorry, I cannot answer that right now."

	notDetected = "(not detected)"
)

func passportSummary(s *session.Session) string {
	var b strings.Builder
	b.WriteString("Here is what I read from your passport:\n")
	fmt.Fprintf(&b, "Given names: %s\n", orPlaceholder(s.GivenNames))
	fmt.Fprintf(&b, "Surname: %s\n", orPlaceholder(s.Surname))
	fmt.Fprintf(&b, "Document number: %s\n", orPlaceholder(s.DocumentNumber))
	b.WriteString("\nIs everything correct? (yes/no)")
	return b.String()
}

func vehicleSummary(s *session.Session) string {
	var b strings.Builder
	b.WriteString("Here is what I read from your vehicle document:\n")
	fmt.Fprintf(&b, "Vehicle: %s\n", orPlaceholder(s.VehicleDescription))
	fmt.Fprintf(&b, "License plate: %s\n", orPlaceholder(s.LicensePlate))
	b.WriteString("\nIs everything correct? (yes/no)")
	return b.String()
}

func priceOffer(priceUSD int) string {
	return fmt.Sprintf("The insurance price is a fixed %d USD. Do you agree? (yes/no)", priceUSD)
}

func orPlaceholder(value string) string {
	if value == "" {
		return notDetected
	}
	return value
}
