package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/guestpost/guestpost/backend/go-services/internal/intake"
	"github.com/guestpost/guestpost/backend/go-services/internal/media"
	"github.com/guestpost/guestpost/backend/go-services/internal/ratelimit"
	"github.com/guestpost/guestpost/backend/go-services/internal/settings"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
)

// SubmissionHandler serves the public side: the form, its nonce, intake and
// published posts.
type SubmissionHandler struct {
	intake   *intake.Service
	settings *settings.Service
	nonces   *tokens.NonceIssuer
	repo     submission.Repository
	images   *media.Images
	siteName string
}

func NewSubmissionHandler(in *intake.Service, st *settings.Service, nonces *tokens.NonceIssuer, repo submission.Repository, images *media.Images, siteName string) *SubmissionHandler {
	return &SubmissionHandler{intake: in, settings: st, nonces: nonces, repo: repo, images: images, siteName: siteName}
}

func (h *SubmissionHandler) Register(r gin.IRouter) {
	r.GET("/guest-post/form", h.Form)
	r.GET("/api/nonce", h.Nonce)
	r.POST("/api/submissions", h.Submit)
	r.GET("/api/posts/:id", h.Published)
}

// Form renders the submission form with a fresh nonce and the configured style.
func (h *SubmissionHandler) Form(c *gin.Context) {
	cfg, err := h.settings.Get(c.Request.Context())
	if err != nil {
		failText(c, apperrors.Internal(err))
		return
	}
	nonce, err := h.nonces.Generate(tokens.PurposeSubmit, "")
	if err != nil {
		failText(c, apperrors.Internal(err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Render(http.StatusOK, render.HTML{
		Template: formPage,
		Name:     "guest-post-form",
		Data:     formData{SiteName: h.siteName, Style: cfg.FormStyle, Nonce: nonce, Action: "/api/submissions"},
	})
}

func (h *SubmissionHandler) Nonce(c *gin.Context) {
	nonce, err := h.nonces.Generate(tokens.PurposeSubmit, "")
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Submit accepts the multipart (or urlencoded) guest post form.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	in := intake.Input{
		Title:       c.PostForm("post_title"),
		Content:     c.PostForm("post_content"),
		AuthorName:  c.PostForm("author_name"),
		AuthorEmail: c.PostForm("author_email"),
		AuthorBio:   c.PostForm("author_bio"),
		Honeypot:    c.PostForm("website_hp"),
		Nonce:       c.PostForm("nonce"),
		ClientID:    ratelimit.ClientID(c.Request),
	}
	if fh, err := c.FormFile("featured_image"); err == nil && fh.Size > 0 {
		f, err := fh.Open()
		if err == nil {
			defer f.Close()
			in.Image = f
		}
	}
	res, err := h.intake.Submit(ctx, in, cfg)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": res.Message, "post_id": res.ID, "status": res.Status})
}

type publicPost struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"author_name"`
	AuthorBio     string    `json:"author_bio,omitempty"`
	Category      string    `json:"category,omitempty"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	Date          time.Time `json:"date"`
}

// Published returns a published submission. Anything else is not found.
func (h *SubmissionHandler) Published(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, submission.ErrNotFound) {
		fail(c, apperrors.Internal(err))
		return
	}
	if err != nil || s.Status != submission.StatusPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, publicPost{
		ID:            s.ID,
		Title:         s.Title,
		Content:       s.Content,
		AuthorName:    s.AuthorName,
		AuthorBio:     s.AuthorBio,
		Category:      s.Category,
		FeaturedImage: h.images.URL(c.Request.Context(), s.FeaturedImageRef),
		Date:          s.CreatedAt,
	})
}
