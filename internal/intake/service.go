package intake

import (
	"context"
	"html"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/guestpost/guestpost/backend/go-services/internal/ratelimit"
	"github.com/guestpost/guestpost/backend/go-services/internal/settings"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
	"github.com/guestpost/guestpost/backend/go-services/pkg/metrics"
	"github.com/microcosm-cc/bluemonday"
)

// SuccessMessage is returned to the author after an accepted submission.
const SuccessMessage = "Your guest post has been submitted successfully!"

// Input is the raw public form.
type Input struct {
	Title       string
	Content     string
	AuthorName  string
	AuthorEmail string
	AuthorBio   string
	// Honeypot is the hidden website_hp field.
	Honeypot string
	Nonce    string
	// ClientID identifies the submitter for rate limiting, see ratelimit.ClientID.
	ClientID string
	// Image is the optional featured image upload.
	Image io.Reader
}

type Result struct {
	ID      string            `json:"post_id"`
	Status  submission.Status `json:"status"`
	Message string            `json:"message"`
}

// AdminNotifier is told about every accepted submission when email
// notification is on.
type AdminNotifier interface {
	NotifyNewSubmission(ctx context.Context, s *submission.Submission, cfg settings.Settings) error
}

// ImageSaver stores a featured image and returns its reference.
type ImageSaver interface {
	SaveFeatured(ctx context.Context, submissionID string, r io.Reader) (string, error)
}

type Service struct {
	repo     submission.Repository
	limiter  *ratelimit.Limiter
	nonces   *tokens.NonceIssuer
	images   ImageSaver
	notifier AdminNotifier
	validate *validator.Validate
	content  *bluemonday.Policy
	plain    *bluemonday.Policy
	now      func() time.Time
	log      *logger.Entry
}

// NewService wires intake. images and notifier may be nil.
func NewService(repo submission.Repository, limiter *ratelimit.Limiter, nonces *tokens.NonceIssuer, images ImageSaver, notifier AdminNotifier) *Service {
	return &Service{
		repo:     repo,
		limiter:  limiter,
		nonces:   nonces,
		images:   images,
		notifier: notifier,
		validate: validator.New(),
		content:  bluemonday.UGCPolicy(),
		plain:    bluemonday.StrictPolicy(),
		now:      time.Now,
		log:      logger.With("intake"),
	}
}

// Submit validates and stores a guest post. Checks run in a fixed order and
// stop at the first failure; a rejected submission creates no record and does
// not touch the rate-limit counter.
func (s *Service) Submit(ctx context.Context, in Input, cfg settings.Settings) (*Result, error) {
	if err := s.check(ctx, in, cfg); err != nil {
		metrics.Submissions.WithLabelValues(apperrors.CodeOf(err)).Inc()
		return nil, err
	}

	status := submission.StatusPublished
	if cfg.ModerationEnabled {
		status = submission.StatusPending
	}
	rec := &submission.Submission{
		Title:       s.text(in.Title),
		Content:     s.content.Sanitize(in.Content),
		Status:      status,
		CreatedAt:   submission.CreationTime(s.now()),
		AuthorName:  s.text(in.AuthorName),
		AuthorEmail: strings.TrimSpace(in.AuthorEmail),
		AuthorBio:   s.text(in.AuthorBio),
		Category:    cfg.DefaultCategory,
	}
	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		metrics.Submissions.WithLabelValues(apperrors.CodeUnexpected).Inc()
		return nil, apperrors.Internal(err)
	}
	rec.ID = id
	log := s.log.Field("post_id", id)

	if in.Image != nil && s.images != nil {
		if ref, err := s.images.SaveFeatured(ctx, id, in.Image); err != nil {
			log.Warnf("featured image skipped: %v", err)
		} else if err := s.repo.AttachFeaturedImage(ctx, id, ref); err != nil {
			log.Warnf("featured image not attached: %v", err)
		} else {
			rec.FeaturedImageRef = ref
		}
	}

	if err := s.limiter.Record(ctx, in.ClientID, cfg.SubmissionLimit); err != nil {
		log.Warnf("submission counter not updated: %v", err)
	}

	if cfg.EmailNotification && s.notifier != nil {
		if err := s.notifier.NotifyNewSubmission(ctx, rec, cfg); err != nil {
			log.Warnf("admin notification failed: %v", err)
		}
	}

	metrics.Submissions.WithLabelValues(string(status)).Inc()
	log.Infof("guest post accepted as %s", status)
	return &Result{ID: id, Status: status, Message: SuccessMessage}, nil
}

func (s *Service) check(ctx context.Context, in Input, cfg settings.Settings) error {
	if err := s.nonces.Verify(in.Nonce, tokens.PurposeSubmit, ""); err != nil {
		return apperrors.ErrSecurityCheckFailed.Wrap(err)
	}
	if cfg.SpamProtection {
		if in.Honeypot != "" {
			return apperrors.ErrSpamDetected.WithDetail("honeypot")
		}
		exceeded, err := s.limiter.IsLimitExceeded(ctx, in.ClientID, cfg.SubmissionLimit)
		if err != nil {
			return apperrors.Internal(err)
		}
		if exceeded {
			return apperrors.ErrRateLimitExceeded
		}
	}
	required := []struct{ field, value, message string }{
		{"post_title", in.Title, "Post title is required."},
		{"post_content", in.Content, "Post content is required."},
		{"author_name", in.AuthorName, "Author name is required."},
		{"author_email", in.AuthorEmail, "Author email is required."},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperrors.MissingField(r.field, r.message)
		}
	}
	if err := s.validate.Var(strings.TrimSpace(in.AuthorEmail), "email"); err != nil {
		return apperrors.ErrInvalidEmail.Wrap(err)
	}
	return nil
}

// text strips markup and returns plain text.
func (s *Service) text(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(v)))
}
