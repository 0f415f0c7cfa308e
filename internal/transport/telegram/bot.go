// Package telegram adapts the Telegram Bot API to the workflow engine: it
// converts incoming updates into inbound messages and sends replies back.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/d1ced/insurance-bot/internal/service/flow"
)

// Handler consumes one inbound message; satisfied by flow.Engine.
type Handler interface {
	HandleMessage(ctx context.Context, in flow.Inbound)
}

// Bot runs the long-polling update loop.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler Handler
	files   *http.Client
}

// New authenticates against the Bot API.
func New(token string, handler Handler) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	log.Printf("[telegram] authorized as @%s", api.Self.UserName)

	return &Bot{
		api:     api,
		handler: handler,
		files:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Run consumes updates until the context is cancelled. Each update is
// handled on its own goroutine; ordering within one chat is enforced by the
// engine's per-chat serialization.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			message := update.Message
			go b.handler.HandleMessage(ctx, b.inbound(message))
		}
	}
}

// Send implements flow.Sender.
func (b *Bot) Send(chatID int64, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram: send to chat %d: %w", chatID, err)
	}
	return nil
}

// inbound converts a Telegram message. The photo is not downloaded here; the
// engine receives a fetch closure and pulls the bytes only when the workflow
// needs them.
func (b *Bot) inbound(message *tgbotapi.Message) flow.Inbound {
	text := message.Text
	if text == "" {
		text = message.Caption
	}

	in := flow.Inbound{
		ChatID: message.Chat.ID,
		Text:   text,
	}

	if fileID, ok := largestPhoto(message.Photo); ok {
		in.HasImage = true
		in.Image = func(ctx context.Context) ([]byte, error) {
			return b.downloadFile(ctx, fileID)
		}
	}

	return in
}

// largestPhoto picks the highest-resolution representation of the photo.
func largestPhoto(sizes []tgbotapi.PhotoSize) (string, bool) {
	var (
		fileID string
		best   int
	)
	for _, size := range sizes {
		if area := size.Width * size.Height; fileID == "" || area > best {
			fileID = size.FileID
			best = area
		}
	}
	return fileID, fileID != ""
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram: resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: build download request: %w", err)
	}

	resp, err := b.files.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: read file body: %w", err)
	}
	return data, nil
}
