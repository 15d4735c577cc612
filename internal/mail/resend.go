package mail

import (
	"context"

	"github.com/resend/resend-go/v2"
)

type resendAPI interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendTransport sends through the Resend API.
type ResendTransport struct {
	emails resendAPI
	from   string
}

func NewResendTransport(apiKey, from string) *ResendTransport {
	return &ResendTransport{emails: resend.NewClient(apiKey).Emails, from: from}
}

func (t *ResendTransport) Send(ctx context.Context, msg Message) error {
	req := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if _, err := t.emails.Send(req); err != nil {
		return deliveryFailed("resend", err)
	}
	return nil
}
