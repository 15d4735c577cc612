package moderation

import (
	"context"
	"errors"

	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
	"github.com/guestpost/guestpost/backend/go-services/pkg/metrics"
)

// OutcomeNotifier tells a guest author how their submission was moderated.
type OutcomeNotifier interface {
	NotifyOutcome(ctx context.Context, s *submission.Submission, approved bool) error
}

// Machine moves guest submissions out of pending. It does not special-case
// records that are already published or trashed; repeating an action repeats
// the write and the author email. Concurrent approve and reject on one record
// are last-write-wins.
type Machine struct {
	repo     submission.Repository
	notifier OutcomeNotifier
	log      *logger.Entry
}

func NewMachine(repo submission.Repository, notifier OutcomeNotifier) *Machine {
	return &Machine{repo: repo, notifier: notifier, log: logger.With("moderation")}
}

// Apply executes a granted decision or returns the denial reason.
func (m *Machine) Apply(ctx context.Context, d Decision) (*submission.Submission, error) {
	if !d.Granted() {
		reason := d.Reason
		if reason == nil {
			reason = apperrors.ErrUnauthorized
		}
		metrics.ModerationDenied.WithLabelValues(apperrors.CodeOf(reason)).Inc()
		m.log.Field("post_id", d.SubmissionID).Field("action", string(d.Action)).Infof("moderation denied: %v", reason)
		return nil, reason
	}

	var (
		s   *submission.Submission
		err error
	)
	switch d.Action {
	case ActionApprove:
		s, err = m.Approve(ctx, d.SubmissionID)
	case ActionReject:
		s, err = m.Reject(ctx, d.SubmissionID)
	default:
		return nil, apperrors.ErrInvalidInput.WithDetail("unknown action " + string(d.Action))
	}
	if err != nil {
		return nil, err
	}
	metrics.ModerationActions.WithLabelValues(string(d.Action), d.Verdict.String()).Inc()
	m.log.Field("post_id", s.ID).Field("channel", d.Verdict.String()).Field("subject", d.Subject).Infof("submission %s", s.Status)
	return s, nil
}

// Approve publishes a guest submission and notifies its author.
func (m *Machine) Approve(ctx context.Context, id string) (*submission.Submission, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.repo.UpdateStatus(ctx, id, submission.StatusPublished); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.Status = submission.StatusPublished
	m.notify(ctx, s, true)
	return s, nil
}

// Reject moves a guest submission to the trash and notifies its author.
func (m *Machine) Reject(ctx context.Context, id string) (*submission.Submission, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Trash(ctx, id); err != nil {
		return nil, apperrors.Internal(err)
	}
	if s.Status != submission.StatusTrashed {
		s.PreviousStatus = s.Status
		s.Status = submission.StatusTrashed
	}
	m.notify(ctx, s, false)
	return s, nil
}

func (m *Machine) load(ctx context.Context, id string) (*submission.Submission, error) {
	s, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail(id)
		}
		return nil, apperrors.Internal(err)
	}
	if !s.IsGuest() {
		return nil, apperrors.ErrNotAGuestSubmission.WithDetail(id)
	}
	return s, nil
}

// notify is best effort; the transition stands when the email fails.
func (m *Machine) notify(ctx context.Context, s *submission.Submission, approved bool) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyOutcome(ctx, s, approved); err != nil {
		m.log.Field("post_id", s.ID).Warnf("author notification failed: %v", err)
	}
}
