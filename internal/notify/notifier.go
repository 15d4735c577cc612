package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/guestpost/guestpost/backend/go-services/internal/mail"
	"github.com/guestpost/guestpost/backend/go-services/internal/settings"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
	"github.com/guestpost/guestpost/backend/go-services/pkg/metrics"
)

const (
	KindNewSubmission = "new_submission"
	KindApproved      = "approved"
	KindRejected      = "rejected"

	defaultAdminSubject = "New Guest Post Submission"
)

// Notifier composes and sends the admin and author emails.
type Notifier struct {
	transport  mail.Transport
	links      *LinkBuilder
	siteName   string
	adminEmail string
	log        *logger.Entry
}

func New(transport mail.Transport, links *LinkBuilder, siteName, adminEmail string) *Notifier {
	return &Notifier{
		transport:  transport,
		links:      links,
		siteName:   siteName,
		adminEmail: adminEmail,
		log:        logger.With("notify"),
	}
}

func (n *Notifier) Links() *LinkBuilder { return n.links }

// NotifyNewSubmission emails the site administrator about s using the
// template from cfg.
func (n *Notifier) NotifyNewSubmission(ctx context.Context, s *submission.Submission, cfg settings.Settings) error {
	subject, body := RenderTemplate(cfg.Template(), Values{
		PostTitle:   s.Title,
		AuthorName:  s.AuthorName,
		AuthorEmail: s.AuthorEmail,
		PreviewLink: n.links.Preview(s.ID),
		ApproveLink: n.links.ActionLink("approve", s.ID, s.CreatedAt),
		RejectLink:  n.links.ActionLink("reject", s.ID, s.CreatedAt),
		AdminLink:   n.links.Edit(s.ID),
	})
	if subject == "" {
		subject = defaultAdminSubject + ": " + s.Title
	}
	return n.send(ctx, KindNewSubmission, s.ID, mail.Message{To: n.adminEmail, Subject: subject, HTML: body})
}

// NotifyOutcome tells the author whether their submission was approved.
func (n *Notifier) NotifyOutcome(ctx context.Context, s *submission.Submission, approved bool) error {
	kind := KindRejected
	subject := fmt.Sprintf("Your guest post has been rejected - %s", n.siteName)
	text := fmt.Sprintf("Hi %s,\n\nThank you for submitting \"%s\" to %s. Unfortunately it was not accepted for publication.",
		html.EscapeString(s.AuthorName), html.EscapeString(s.Title), html.EscapeString(n.siteName))
	if approved {
		kind = KindApproved
		link := n.links.Permalink(s.ID)
		subject = fmt.Sprintf("Your guest post has been approved - %s", n.siteName)
		text = fmt.Sprintf("Hi %s,\n\nYour guest post \"%s\" has been approved and is now live on %s.\n\n<a href=\"%s\">%s</a>",
			html.EscapeString(s.AuthorName), html.EscapeString(s.Title), html.EscapeString(n.siteName),
			html.EscapeString(link), html.EscapeString(link))
	}
	body := wrap(text)
	return n.send(ctx, kind, s.ID, mail.Message{To: s.AuthorEmail, Subject: subject, HTML: body})
}

func (n *Notifier) send(ctx context.Context, kind, id string, msg mail.Message) error {
	if err := n.transport.Send(ctx, msg); err != nil {
		metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		n.log.Field("post_id", id).Field("kind", kind).Warnf("notification not delivered: %v", err)
		return err
	}
	metrics.Notifications.WithLabelValues(kind, "sent").Inc()
	return nil
}
