package sms

import (
	"context"
	"log"

	"tripsync/internal/domain"
)

// SenderConfig holds configuration for creating an SMS sender.
type SenderConfig struct {
	Provider string
}

// NewSender creates an SMS sender from config. Provider "log" prints the
// code to the server log (development only); "noop" or unknown discards it.
func NewSender(config SenderConfig) (domain.SMSSender, error) {
	switch config.Provider {
	case "log":
		return &logSender{}, nil
	case "noop":
		return &noopSender{}, nil
	default:
		log.Printf("[SMS] Unknown SMS provider %q, using noop", config.Provider)
		return &noopSender{}, nil
	}
}

type logSender struct{}

func (s *logSender) SendCode(ctx context.Context, phone, code string) error {
	log.Printf("[SMS] Login code for %s: %s", phone, code)
	return nil
}

type noopSender struct{}

func (s *noopSender) SendCode(ctx context.Context, phone, code string) error {
	return nil
}
