package moderation

import (
	"context"
	"errors"

	"github.com/guestpost/guestpost/backend/go-services/internal/models"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
)

// Request is a moderation attempt as it arrives from either channel.
type Request struct {
	Action       Action
	SubmissionID string
	// Nonce is the optional anti-forgery value on the session channel.
	Nonce string
	// Token is the action token from an email link.
	Token     string
	Principal *models.Principal
}

// Strategy authorizes a request for one channel.
type Strategy interface {
	Authorize(ctx context.Context, req Request) Decision
}

// SessionStrategy authorizes signed-in administrators. A supplied nonce must
// verify for the caller; without one the caller needs edit_posts.
type SessionStrategy struct {
	nonces *tokens.NonceIssuer
}

func NewSessionStrategy(nonces *tokens.NonceIssuer) *SessionStrategy {
	return &SessionStrategy{nonces: nonces}
}

func (s *SessionStrategy) Authorize(ctx context.Context, req Request) Decision {
	subject := ""
	if req.Principal != nil {
		subject = req.Principal.Subject
	}
	if req.Nonce != "" {
		if err := s.nonces.Verify(req.Nonce, tokens.PurposePostAction, subject); err != nil {
			return deny(req.Action, req.SubmissionID, apperrors.ErrSecurityCheckFailed.Wrap(err))
		}
		return grant(SessionGranted, req.Action, req.SubmissionID, subject)
	}
	if !req.Principal.Can(models.CapEditPosts) {
		return deny(req.Action, req.SubmissionID, apperrors.ErrUnauthorized)
	}
	return grant(SessionGranted, req.Action, req.SubmissionID, subject)
}

// TokenStrategy authorizes email links by recomputing the action token from
// the stored record.
type TokenStrategy struct {
	repo   submission.Repository
	secret string
}

func NewTokenStrategy(repo submission.Repository, secret string) *TokenStrategy {
	return &TokenStrategy{repo: repo, secret: secret}
}

func (t *TokenStrategy) Authorize(ctx context.Context, req Request) Decision {
	s, err := t.repo.Get(ctx, req.SubmissionID)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			return deny(req.Action, req.SubmissionID, apperrors.ErrInvalidToken.WithDetail("unknown post"))
		}
		return deny(req.Action, req.SubmissionID, apperrors.Internal(err))
	}
	if !tokens.VerifyActionToken(t.secret, s.ID, s.CreatedAt, req.Token) {
		return deny(req.Action, req.SubmissionID, apperrors.ErrInvalidToken.WithDetail("token mismatch"))
	}
	return grant(TokenGranted, req.Action, req.SubmissionID, "")
}
