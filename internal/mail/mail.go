package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/guestpost/guestpost/backend/go-services/internal/config"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers a message. Failures are returned as ErrMailDeliveryFailed
// and are never retried.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

func deliveryFailed(provider string, err error) error {
	return apperrors.ErrMailDeliveryFailed.WithDetail(provider).Wrap(err)
}

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct{}

func (LogTransport) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return deliveryFailed("log", fmt.Errorf("empty recipient"))
	}
	logger.With("mail").Field("to", msg.To).Infof("mail (log transport): %s", msg.Subject)
	return nil
}

// New builds the transport selected by cfg.Mail.Driver.
func New(ctx context.Context, cfg config.MailConfig) (Transport, error) {
	switch cfg.Driver {
	case "ses":
		return NewSESTransport(ctx, cfg.AWSRegion, cfg.From)
	case "resend":
		return NewResendTransport(cfg.ResendAPIKey, cfg.From), nil
	case "", "log":
		return LogTransport{}, nil
	}
	return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
}
