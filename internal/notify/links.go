package notify

import (
	"net/url"
	"strings"
	"time"

	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
)

// LinkBuilder produces the absolute URLs embedded in emails and redirects.
type LinkBuilder struct {
	siteURL      string
	adminURL     string
	actionSecret string
}

func NewLinkBuilder(siteURL, adminURL, actionSecret string) *LinkBuilder {
	siteURL = strings.TrimRight(siteURL, "/")
	adminURL = strings.TrimRight(adminURL, "/")
	if adminURL == "" {
		adminURL = siteURL + "/admin"
	}
	return &LinkBuilder{siteURL: siteURL, adminURL: adminURL, actionSecret: actionSecret}
}

// ActionLink is the stateless approve/reject link for an admin email.
func (l *LinkBuilder) ActionLink(action, id string, createdAt time.Time) string {
	q := url.Values{}
	q.Set("action", action)
	q.Set("post_id", id)
	q.Set("token", tokens.ActionToken(l.actionSecret, id, createdAt))
	return l.siteURL + "/moderate-email?" + q.Encode()
}

// SessionActionLink is the dashboard approve/reject link carrying a post_action nonce.
func (l *LinkBuilder) SessionActionLink(action, id, nonce string) string {
	q := url.Values{}
	q.Set("action", action)
	q.Set("post_id", id)
	if nonce != "" {
		q.Set("nonce", nonce)
	}
	return l.siteURL + "/moderate?" + q.Encode()
}

func (l *LinkBuilder) Preview(id string) string {
	return l.siteURL + "/api/submissions/" + url.PathEscape(id) + "/preview"
}

func (l *LinkBuilder) Edit(id string) string {
	return l.adminURL + "/submissions/" + url.PathEscape(id)
}

func (l *LinkBuilder) Permalink(id string) string {
	return l.siteURL + "/api/posts/" + url.PathEscape(id)
}

// Dashboard is where session-channel moderation lands, with an outcome message.
func (l *LinkBuilder) Dashboard(message string) string {
	if message == "" {
		return l.adminURL
	}
	return l.adminURL + "?guest_post_message=" + url.QueryEscape(message)
}

// TrashListing shows trashed submissions.
func (l *LinkBuilder) TrashListing() string {
	return l.adminURL + "/submissions?status=trashed"
}
