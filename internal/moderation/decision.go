package moderation

import (
	"strings"

	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
)

// Action is the moderation transition an administrator asked for.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction accepts "approve" or "reject" (case-insensitive).
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	}
	return "", apperrors.ErrInvalidInput.WithDetail("unknown action " + s)
}

// Verdict tells which channel authorized a request, or that none did.
type Verdict int

const (
	Denied Verdict = iota
	SessionGranted
	TokenGranted
)

func (v Verdict) String() string {
	switch v {
	case SessionGranted:
		return "session"
	case TokenGranted:
		return "token"
	}
	return "denied"
}

// Decision is the authorizer's output and the state machine's only input.
// A granted decision carries exactly one action and one submission id; a
// denied one carries the reason.
type Decision struct {
	Verdict      Verdict
	Action       Action
	SubmissionID string
	// Subject is the signed-in administrator for session grants.
	Subject string
	Reason  error
}

func (d Decision) Granted() bool {
	return d.Verdict == SessionGranted || d.Verdict == TokenGranted
}

func grant(v Verdict, action Action, id, subject string) Decision {
	return Decision{Verdict: v, Action: action, SubmissionID: id, Subject: subject}
}

func deny(action Action, id string, reason error) Decision {
	return Decision{Verdict: Denied, Action: action, SubmissionID: id, Reason: reason}
}
