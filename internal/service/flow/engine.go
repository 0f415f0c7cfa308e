// Package flow implements the per-conversation workflow: it routes each
// inbound message to the handler for the session's current state and owns
// every state transition.
package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/d1ced/insurance-bot/internal/analysis/reply"
	"github.com/d1ced/insurance-bot/internal/model/session"
	"github.com/d1ced/insurance-bot/internal/service/ai"
	"github.com/d1ced/insurance-bot/internal/service/docs"
)

// Engine dispatches inbound messages against the session state machine.
type Engine struct {
	store     session.Store
	passport  docs.Interpreter
	vehicle   docs.Interpreter
	responder ai.Responder
	sender    Sender

	restartCommand string
	priceUSD       int

	// one lock per conversation so messages of the same chat are handled
	// strictly in order while different chats proceed concurrently
	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// NewEngine wires the workflow engine to its collaborators.
func NewEngine(store session.Store, passport, vehicle docs.Interpreter, responder ai.Responder, sender Sender, restartCommand string, priceUSD int) *Engine {
	return &Engine{
		store:          store,
		passport:       passport,
		vehicle:        vehicle,
		responder:      responder,
		sender:         sender,
		restartCommand: strings.ToLower(strings.TrimSpace(restartCommand)),
		priceUSD:       priceUSD,
		chatLocks:      make(map[int64]*sync.Mutex),
	}
}

// HandleMessage processes one inbound message end to end. Any extraction or
// generation failure is converted into a single apology and leaves the
// session exactly as it was, so the user can retry.
func (e *Engine) HandleMessage(ctx context.Context, in Inbound) {
	lock := e.chatLock(in.ChatID)
	lock.Lock()
	defer lock.Unlock()

	sess := e.store.GetOrCreate(in.ChatID)

	if e.isRestart(in.Text) {
		sess.Reset()
		e.store.Put(sess)
		e.send(in.ChatID, msgRestarted)
		return
	}

	before := sess.State
	e.dispatch(ctx, sess, in)
	if sess.State != before {
		log.Printf("[flow] chat %d: %s -> %s", in.ChatID, before, sess.State)
	}
	e.store.Put(sess)
}

func (e *Engine) dispatch(ctx context.Context, sess *session.Session, in Inbound) {
	switch sess.State {
	case session.StateStart:
		e.handleStart(sess, in)
	case session.StateWaitingPassport:
		e.handleWaiting(ctx, sess, in, e.passport, msgPassportReminder)
	case session.StateConfirmingPassport:
		e.handleConfirmPassport(sess, in)
	case session.StateWaitingVehicle:
		e.handleWaiting(ctx, sess, in, e.vehicle, msgVehicleReminder)
	case session.StateConfirmingVehicle:
		e.handleConfirmVehicle(sess, in)
	case session.StatePriceAgreement:
		e.handlePriceAgreement(ctx, sess, in)
	case session.StateCompleted:
		e.send(sess.ChatID, msgCompleted)
	default:
		log.Printf("[flow] chat %d: unknown state %d, resetting", sess.ChatID, sess.State)
		sess.Reset()
		e.send(sess.ChatID, msgGreeting)
		sess.State = session.StateWaitingPassport
	}
}

// handleStart greets the user on their first message and moves the workflow
// to the passport step.
func (e *Engine) handleStart(sess *session.Session, _ Inbound) {
	e.send(sess.ChatID, msgGreeting)
	sess.State = session.StateWaitingPassport
}

// handleWaiting covers both document-waiting states. An image runs the
// interpreter; plain text gets a side-channel AI answer plus a reminder
// without advancing the workflow.
func (e *Engine) handleWaiting(ctx context.Context, sess *session.Session, in Inbound, interp docs.Interpreter, reminder string) {
	if in.HasImage {
		e.handleDocument(ctx, sess, in, interp)
		return
	}

	if strings.TrimSpace(in.Text) != "" {
		e.answerQuestion(ctx, sess.ChatID, in.Text)
		e.send(sess.ChatID, reminder)
		return
	}

	e.send(sess.ChatID, msgSendPhoto)
}

func (e *Engine) handleDocument(ctx context.Context, sess *session.Session, in Inbound, interp docs.Interpreter) {
	image, err := in.Image(ctx)
	if err != nil {
		log.Printf("[flow] chat %d: image download failed: %v", sess.ChatID, err)
		e.send(sess.ChatID, msgExtractionApology)
		return
	}

	record, err := interp.Extract(ctx, image)
	if err != nil {
		log.Printf("[flow] chat %d: extraction failed: %v", sess.ChatID, err)
		e.send(sess.ChatID, msgExtractionApology)
		return
	}

	// State and fields change only after the extraction fully succeeded.
	if sess.State == session.StateWaitingPassport {
		sess.ApplyPassport(record)
		sess.State = session.StateConfirmingPassport
		e.send(sess.ChatID, passportSummary(sess))
	} else {
		sess.ApplyVehicle(record)
		sess.State = session.StateConfirmingVehicle
		e.send(sess.ChatID, vehicleSummary(sess))
	}
}

func (e *Engine) handleConfirmPassport(sess *session.Session, in Inbound) {
	switch reply.Classify(in.Text) {
	case reply.Yes:
		sess.State = session.StateWaitingVehicle
		e.send(sess.ChatID, msgVehicleReminder)
	case reply.No:
		sess.ClearPassport()
		sess.State = session.StateWaitingPassport
		e.send(sess.ChatID, msgPassportReminder)
	default:
		e.send(sess.ChatID, msgConfirmPrompt)
	}
}

func (e *Engine) handleConfirmVehicle(sess *session.Session, in Inbound) {
	switch reply.Classify(in.Text) {
	case reply.Yes:
		sess.State = session.StatePriceAgreement
		e.send(sess.ChatID, priceOffer(e.priceUSD))
	case reply.No:
		sess.ClearVehicle()
		sess.State = session.StateWaitingVehicle
		e.send(sess.ChatID, msgVehicleReminder)
	default:
		e.send(sess.ChatID, msgConfirmPrompt)
	}
}

func (e *Engine) handlePriceAgreement(ctx context.Context, sess *session.Session, in Inbound) {
	switch reply.Classify(in.Text) {
	case reply.Yes:
		policy, err := e.responder.RenderPolicy(ctx, ai.PolicyInput{
			HolderName:         holderName(sess),
			VehicleDescription: sess.VehicleDescription,
			LicensePlate:       sess.LicensePlate,
			PriceUSD:           e.priceUSD,
		})
		if err != nil {
			log.Printf("[flow] chat %d: policy rendering failed: %v", sess.ChatID, err)
			e.send(sess.ChatID, msgPolicyApology)
			return
		}
		sess.State = session.StateCompleted
		e.send(sess.ChatID, policy)
	case reply.No:
		e.send(sess.ChatID, msgPriceFinal)
	default:
		e.send(sess.ChatID, msgConfirmPrompt)
	}
}

// answerQuestion runs the side-channel AI reply. A generation failure is
// recovered locally with a canned apology so the reminder that follows it is
// never blocked.
func (e *Engine) answerQuestion(ctx context.Context, chatID int64, question string) {
	answer, err := e.responder.AnswerQuestion(ctx, question)
	if err != nil {
		log.Printf("[flow] chat %d: answer generation failed: %v", chatID, err)
		answer = msgAnswerApology
	}
	e.send(chatID, answer)
}

func (e *Engine) isRestart(text string) bool {
	if e.restartCommand == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(text)) == e.restartCommand
}

func (e *Engine) send(chatID int64, text string) {
	if err := e.sender.Send(chatID, text); err != nil {
		log.Printf("[flow] chat %d: send failed: %v", chatID, err)
	}
}

func (e *Engine) chatLock(chatID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lock, ok := e.chatLocks[chatID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	e.chatLocks[chatID] = lock
	return lock
}

func holderName(s *session.Session) string {
	name := strings.TrimSpace(fmt.Sprintf("%s %s", s.GivenNames, s.Surname))
	return name
}
