package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/d1ced/insurance-bot/internal/config"
	"github.com/d1ced/insurance-bot/internal/handler"
	"github.com/d1ced/insurance-bot/internal/model/session"
	"github.com/d1ced/insurance-bot/internal/service/ai"
	"github.com/d1ced/insurance-bot/internal/service/docs"
	"github.com/d1ced/insurance-bot/internal/service/flow"
	"github.com/d1ced/insurance-bot/internal/service/ocr"
	"github.com/d1ced/insurance-bot/internal/transport/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := session.NewMemoryStore()

	passport, err := docs.NewPassportInterpreter(ocr.Config{
		APIKey:       cfg.OCR.APIKey,
		ModelID:      cfg.OCR.PassportModelID,
		BaseURL:      cfg.OCR.BaseURL,
		InitialDelay: cfg.OCR.InitialDelay,
		PollInterval: cfg.OCR.PollInterval,
		MaxAttempts:  cfg.OCR.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("failed to initialize passport interpreter: %v", err)
	}

	vehicle, err := docs.NewVehicleInterpreter(ocr.Config{
		APIKey:       cfg.OCR.APIKey,
		ModelID:      cfg.OCR.VehicleModelID,
		BaseURL:      cfg.OCR.BaseURL,
		InitialDelay: cfg.OCR.InitialDelay,
		PollInterval: cfg.OCR.PollInterval,
		MaxAttempts:  cfg.OCR.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("failed to initialize vehicle interpreter: %v", err)
	}

	responder, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Println("AI service initialized successfully")

	var bot *telegram.Bot
	engine := flow.NewEngine(store, passport, vehicle, responder, senderFunc(func(chatID int64, text string) error {
		return bot.Send(chatID, text)
	}), cfg.Bot.RestartCommand, cfg.Bot.PriceUSD)

	bot, err = telegram.New(cfg.Bot.Token, engine)
	if err != nil {
		log.Fatalf("failed to initialize telegram bot: %v", err)
	}

	go startServer(ctx, cfg.Server, handler.NewRouter(store))

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot error: %v", err)
	}
	log.Println("bot stopped")
}

// senderFunc adapts a closure to flow.Sender so the engine and the bot can
// reference each other without an initialization cycle.
type senderFunc func(chatID int64, text string) error

func (f senderFunc) Send(chatID int64, text string) error {
	return f(chatID, text)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("ops server listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
