package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guestpost/guestpost/backend/go-services/internal/mail"
	"github.com/guestpost/guestpost/backend/go-services/internal/models"
	"github.com/guestpost/guestpost/backend/go-services/internal/notify"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission/repository"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "action-secret"

var created = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type outbox struct {
	sent []mail.Message
	err  error
}

func (o *outbox) Send(ctx context.Context, msg mail.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

type fixture struct {
	repo    *repository.MemoryRepo
	outbox  *outbox
	machine *Machine
	nonces  *tokens.NonceIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepo()
	repo.Put(submission.Submission{
		ID: "10", Title: "Foo", Status: submission.StatusPending, CreatedAt: created,
		AuthorName: "Bob", AuthorEmail: "bob@example.com",
	})
	repo.Put(submission.Submission{ID: "11", Title: "Staff post", Status: submission.StatusPending, CreatedAt: created})

	ob := &outbox{}
	n := notify.New(ob, notify.NewLinkBuilder("https://blog.example.com", "", secret), "Blog", "admin@example.com")
	return &fixture{
		repo:    repo,
		outbox:  ob,
		machine: NewMachine(repo, n),
		nonces:  tokens.NewNonceIssuer("nonce-secret", time.Hour),
	}
}

func editor() *models.Principal {
	return &models.Principal{Subject: "kc-1", Roles: []string{models.RoleEditor}}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Approve ")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseAction("delete")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStatelessApproveWithValidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := NewTokenStrategy(f.repo, secret).Authorize(ctx, Request{
		Action: ActionApprove, SubmissionID: "10", Token: tokens.ActionToken(secret, "10", created),
	})
	require.True(t, d.Granted())
	assert.Equal(t, TokenGranted, d.Verdict)

	s, err := f.machine.Apply(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPublished, s.Status)

	stored, err := f.repo.Get(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPublished, stored.Status)

	require.Len(t, f.outbox.sent, 1)
	assert.Equal(t, "bob@example.com", f.outbox.sent[0].To)
	assert.Contains(t, f.outbox.sent[0].Subject, "approved")
}

func TestTokenStrategyDenials(t *testing.T) {
	f := newFixture(t)
	ts := NewTokenStrategy(f.repo, secret)
	ctx := context.Background()

	cases := map[string]Request{
		"wrong token":  {Action: ActionApprove, SubmissionID: "10", Token: "deadbeef"},
		"empty token":  {Action: ActionApprove, SubmissionID: "10"},
		"other post":   {Action: ActionApprove, SubmissionID: "10", Token: tokens.ActionToken(secret, "11", created)},
		"unknown post": {Action: ActionReject, SubmissionID: "99", Token: tokens.ActionToken(secret, "99", created)},
		"wrong secret": {Action: ActionApprove, SubmissionID: "10", Token: tokens.ActionToken("other", "10", created)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			d := ts.Authorize(ctx, req)
			assert.False(t, d.Granted())
			assert.ErrorIs(t, d.Reason, apperrors.ErrInvalidToken)

			_, err := f.machine.Apply(ctx, d)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}

	stored, _ := f.repo.Get(ctx, "10")
	assert.Equal(t, submission.StatusPending, stored.Status)
	assert.Empty(t, f.outbox.sent)
}

func TestSessionRejectWithCapabilityAndNoNonce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := NewSessionStrategy(f.nonces).Authorize(ctx, Request{Action: ActionReject, SubmissionID: "10", Principal: editor()})
	require.Equal(t, SessionGranted, d.Verdict)
	assert.Equal(t, "kc-1", d.Subject)

	before := testutil.ToFloat64(metrics.ModerationActions.WithLabelValues("reject", "session"))
	s, err := f.machine.Apply(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusTrashed, s.Status)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ModerationActions.WithLabelValues("reject", "session")))

	stored, _ := f.repo.Get(ctx, "10")
	assert.Equal(t, submission.StatusTrashed, stored.Status)
	assert.Equal(t, submission.StatusPending, stored.PreviousStatus)

	require.Len(t, f.outbox.sent, 1)
	assert.Contains(t, f.outbox.sent[0].Subject, "rejected")
}

func TestSessionStrategy(t *testing.T) {
	f := newFixture(t)
	ss := NewSessionStrategy(f.nonces)
	ctx := context.Background()

	valid, err := f.nonces.Generate(tokens.PurposePostAction, "kc-1")
	require.NoError(t, err)
	forOther, err := f.nonces.Generate(tokens.PurposePostAction, "kc-2")
	require.NoError(t, err)
	submitNonce, err := f.nonces.Generate(tokens.PurposeSubmit, "kc-1")
	require.NoError(t, err)

	// a valid nonce is enough on its own
	d := ss.Authorize(ctx, Request{Action: ActionApprove, SubmissionID: "10", Nonce: valid, Principal: &models.Principal{Subject: "kc-1"}})
	assert.Equal(t, SessionGranted, d.Verdict)

	for _, nonce := range []string{"garbage", forOther, submitNonce} {
		d = ss.Authorize(ctx, Request{Action: ActionApprove, SubmissionID: "10", Nonce: nonce, Principal: editor()})
		assert.False(t, d.Granted())
		assert.ErrorIs(t, d.Reason, apperrors.ErrSecurityCheckFailed)
	}

	// no nonce: capability decides
	d = ss.Authorize(ctx, Request{Action: ActionApprove, SubmissionID: "10", Principal: &models.Principal{Subject: "kc-3", Roles: []string{"subscriber"}}})
	assert.ErrorIs(t, d.Reason, apperrors.ErrUnauthorized)
	d = ss.Authorize(ctx, Request{Action: ActionApprove, SubmissionID: "10"})
	assert.ErrorIs(t, d.Reason, apperrors.ErrUnauthorized)
}

func TestApproveNonGuestLeavesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.machine.Approve(ctx, "11")
	require.ErrorIs(t, err, apperrors.ErrNotAGuestSubmission)

	stored, _ := f.repo.Get(ctx, "11")
	assert.Equal(t, submission.StatusPending, stored.Status)
	assert.Empty(t, f.outbox.sent)
}

func TestUnknownSubmission(t *testing.T) {
	f := newFixture(t)
	_, err := f.machine.Reject(context.Background(), "404")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "Invalid post.", apperrors.PublicMessage(err))
}

func TestNotificationFailureDoesNotUndoTransition(t *testing.T) {
	f := newFixture(t)
	f.outbox.err = apperrors.ErrMailDeliveryFailed.Wrap(errors.New("down"))
	ctx := context.Background()

	s, err := f.machine.Approve(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPublished, s.Status)
}

func TestReapproveResendsEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.machine.Approve(ctx, "10")
	require.NoError(t, err)
	_, err = f.machine.Approve(ctx, "10")
	require.NoError(t, err)
	assert.Len(t, f.outbox.sent, 2)
}

func TestApplyDeniedWithoutReason(t *testing.T) {
	f := newFixture(t)
	_, err := f.machine.Apply(context.Background(), Decision{Action: ActionApprove, SubmissionID: "10"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRejectPublishedPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.machine.Approve(ctx, "10")
	require.NoError(t, err)
	s, err := f.machine.Reject(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusTrashed, s.Status)

	stored, _ := f.repo.Get(ctx, "10")
	assert.Equal(t, submission.StatusTrashed, stored.Status)
	assert.Equal(t, submission.StatusPublished, stored.PreviousStatus)
	assert.Len(t, f.outbox.sent, 2)
}

func TestApproveTrashedPostRepublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.machine.Reject(ctx, "10")
	require.NoError(t, err)
	s, err := f.machine.Approve(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPublished, s.Status)

	stored, _ := f.repo.Get(ctx, "10")
	assert.Equal(t, submission.StatusPublished, stored.Status)
	require.Len(t, f.outbox.sent, 2)
	assert.Contains(t, f.outbox.sent[1].Subject, "approved")
}

func TestRejectTwiceKeepsRestoreStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := NewTokenStrategy(f.repo, secret).Authorize(ctx, Request{
		Action: ActionReject, SubmissionID: "10", Token: tokens.ActionToken(secret, "10", created),
	})
	_, err := f.machine.Apply(ctx, d)
	require.NoError(t, err)
	s, err := f.machine.Reject(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPending, s.PreviousStatus)

	stored, _ := f.repo.Get(ctx, "10")
	assert.Equal(t, submission.StatusTrashed, stored.Status)
	assert.Equal(t, submission.StatusPending, stored.PreviousStatus)
	// the author is told again
	assert.Len(t, f.outbox.sent, 2)
}
