package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/d1ced/insurance-bot/internal/config"
)

// PolicyHeader is the literal every rendered policy must start with. The
// model sometimes prefixes commentary; rendering strips everything before
// this token.
const PolicyHeader = "CAR INSURANCE POLICY"

// ErrMalformedPolicy is returned when the model reply does not contain the
// policy header at all.
var ErrMalformedPolicy = errors.New("ai: generated policy is missing the header")

// PolicyInput carries the confirmed extraction results into the policy template.
type PolicyInput struct {
	HolderName         string
	VehicleDescription string
	LicensePlate       string
	PriceUSD           int
}

// Responder is the text-generation capability the workflow consumes: answer
// a free-form user question, and render a policy document. Both return plain
// text. A deterministic stub satisfies it in tests.
type Responder interface {
	AnswerQuestion(ctx context.Context, question string) (string, error)
	RenderPolicy(ctx context.Context, input PolicyInput) (string, error)
}

const assistantSystemPrompt = "You are a helpful assistant of a car insurance Telegram bot. " +
	"The user is in the middle of submitting documents for a car insurance purchase. " +
	"Answer the question briefly and politely, in at most three sentences. " +
	"Do not ask for documents yourself; the bot handles that."

const policySystemPrompt = "You generate car insurance policy documents. " +
	"Produce a complete dummy policy as plain text. The very first line must be exactly " +
	"\"" + PolicyHeader + "\". Include policy number, insurer name, the policy holder, " +
	"the insured vehicle with its license plate, the price, today's date and a one year " +
	"validity period. Do not add any commentary."

// Service implements Responder on top of an eino chat chain.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt chain against the configured chat model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("ai: create chat model: %w", err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("ai: compile chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// AnswerQuestion replies to a free-form user question without touching the
// workflow.
func (s *Service) AnswerQuestion(ctx context.Context, question string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": assistantSystemPrompt,
		"query":  question,
	})
	if err != nil {
		return "", fmt.Errorf("ai: answer question: %w", err)
	}
	log.Printf("[ai] answered question, reply length=%d", len(response.Content))
	return response.Content, nil
}

// RenderPolicy generates the policy text for the confirmed data and strips
// any leading commentary before the header token.
func (s *Service) RenderPolicy(ctx context.Context, input PolicyInput) (string, error) {
	query := fmt.Sprintf(
		"Policy holder: %s\nVehicle: %s\nLicense plate: %s\nPrice: %d USD",
		orUnknown(input.HolderName), orUnknown(input.VehicleDescription),
		orUnknown(input.LicensePlate), input.PriceUSD,
	)

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": policySystemPrompt,
		"query":  query,
	})
	if err != nil {
		return "", fmt.Errorf("ai: render policy: %w", err)
	}
	return StripBeforeHeader(response.Content)
}

// StripBeforeHeader drops everything before the policy header token.
func StripBeforeHeader(text string) (string, error) {
	idx := strings.Index(text, PolicyHeader)
	if idx < 0 {
		return "", ErrMalformedPolicy
	}
	return strings.TrimSpace(text[idx:]), nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
