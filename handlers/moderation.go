package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/internal/models"
	"github.com/guestpost/guestpost/backend/go-services/internal/moderation"
	"github.com/guestpost/guestpost/backend/go-services/internal/notify"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/middleware"
)

// pendingPageSize caps the dashboard's pending list.
const pendingPageSize = 10

// ModerationHandler exposes both moderation channels and the dashboard queries.
type ModerationHandler struct {
	session *moderation.SessionStrategy
	token   *moderation.TokenStrategy
	machine *moderation.Machine
	links   *notify.LinkBuilder
	nonces  *tokens.NonceIssuer
	repo    submission.Repository
}

func NewModerationHandler(session *moderation.SessionStrategy, token *moderation.TokenStrategy, machine *moderation.Machine, links *notify.LinkBuilder, nonces *tokens.NonceIssuer, repo submission.Repository) *ModerationHandler {
	return &ModerationHandler{session: session, token: token, machine: machine, links: links, nonces: nonces, repo: repo}
}

// Register mounts the routes. optionalAuth resolves a principal when one is
// present; requireAuth rejects anonymous callers.
func (h *ModerationHandler) Register(r gin.IRouter, optionalAuth, requireAuth gin.HandlerFunc) {
	r.GET("/moderate", optionalAuth, h.SessionLink)
	r.GET("/moderate-email", h.EmailLink)

	api := r.Group("/api", requireAuth)
	manage := middleware.RequireCapability(models.CapManageOptions)
	edit := middleware.RequireCapability(models.CapEditPosts)
	api.POST("/post/:id/approve", manage, h.action(moderation.ActionApprove))
	api.POST("/post/:id/reject", manage, h.action(moderation.ActionReject))
	api.GET("/pending-posts", manage, h.Pending)
	api.GET("/moderation-nonce", edit, h.Nonce)
	api.GET("/submissions/:id/preview", edit, h.Preview)
}

// SessionLink handles dashboard links: /moderate?action=&post_id=&nonce=
func (h *ModerationHandler) SessionLink(c *gin.Context) {
	action, err := moderation.ParseAction(c.Query("action"))
	if err != nil {
		failText(c, err)
		return
	}
	d := h.session.Authorize(c.Request.Context(), moderation.Request{
		Action:       action,
		SubmissionID: c.Query("post_id"),
		Nonce:        c.Query("nonce"),
		Principal:    middleware.CurrentPrincipal(c),
	})
	s, err := h.machine.Apply(c.Request.Context(), d)
	if err != nil {
		failText(c, err)
		return
	}
	msg := "approved"
	if s.Status == submission.StatusTrashed {
		msg = "rejected"
	}
	c.Redirect(http.StatusFound, h.links.Dashboard(msg))
}

// EmailLink handles stateless links: /moderate-email?action=&post_id=&token=
func (h *ModerationHandler) EmailLink(c *gin.Context) {
	action, err := moderation.ParseAction(c.Query("action"))
	if err != nil {
		failText(c, err)
		return
	}
	d := h.token.Authorize(c.Request.Context(), moderation.Request{
		Action:       action,
		SubmissionID: c.Query("post_id"),
		Token:        c.Query("token"),
	})
	s, err := h.machine.Apply(c.Request.Context(), d)
	if err != nil {
		failText(c, err)
		return
	}
	if action == moderation.ActionApprove {
		c.Redirect(http.StatusFound, h.links.Permalink(s.ID))
		return
	}
	c.Redirect(http.StatusFound, h.links.TrashListing())
}

func (h *ModerationHandler) action(a moderation.Action) gin.HandlerFunc {
	message := "Post approved and published."
	if a == moderation.ActionReject {
		message = "Post rejected and moved to trash."
	}
	return func(c *gin.Context) {
		d := h.session.Authorize(c.Request.Context(), moderation.Request{
			Action:       a,
			SubmissionID: c.Param("id"),
			Principal:    middleware.CurrentPrincipal(c),
		})
		if _, err := h.machine.Apply(c.Request.Context(), d); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
	}
}

type pendingPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	EditURL     string `json:"edit_url"`
	PreviewURL  string `json:"preview_url"`
	ApproveURL  string `json:"approve_url"`
	RejectURL   string `json:"reject_url"`
}

// Pending lists the newest pending guest submissions with the total count.
// The approve and reject links carry a nonce bound to the caller.
func (h *ModerationHandler) Pending(c *gin.Context) {
	list, total, err := h.repo.ListPending(c.Request.Context(), pendingPageSize)
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	nonce, err := h.nonces.Generate(tokens.PurposePostAction, middleware.CurrentPrincipal(c).Subject)
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	posts := make([]pendingPost, 0, len(list))
	for _, s := range list {
		posts = append(posts, pendingPost{
			ID:          s.ID,
			Title:       s.Title,
			Date:        s.CreatedAt.Format("January 2, 2006"),
			AuthorName:  s.AuthorName,
			AuthorEmail: s.AuthorEmail,
			EditURL:     h.links.Edit(s.ID),
			PreviewURL:  h.links.Preview(s.ID),
			ApproveURL:  h.links.SessionActionLink(string(moderation.ActionApprove), s.ID, nonce),
			RejectURL:   h.links.SessionActionLink(string(moderation.ActionReject), s.ID, nonce),
		})
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"posts": posts, "total": total})
}

// Nonce issues a post_action nonce bound to the caller for dashboard links.
func (h *ModerationHandler) Nonce(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	nonce, err := h.nonces.Generate(tokens.PurposePostAction, p.Subject)
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Preview returns the full record in any status.
func (h *ModerationHandler) Preview(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			fail(c, apperrors.ErrNotFound)
			return
		}
		fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, s)
}
