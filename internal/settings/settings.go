package settings

import (
	"strings"
)

const (
	StyleLight = "light"
	StyleDark  = "dark"

	DefaultSubmissionLimit uint = 3
)

// DefaultEmailTemplate is used when no template has been saved.
const DefaultEmailTemplate = `Subject: New Guest Post Submission: "{post_title}"

A new guest post was submitted by {author_name} ({author_email})

Title: {post_title}
Preview: {preview_link}
➕ Approve: {approve_link} | ❌ Reject: {reject_link}

Review: {admin_link}`

// Settings is the site-wide configuration for the guest post workflow.
type Settings struct {
	DefaultCategory   string `json:"default_category" bson:"defaultCategory"`
	ModerationEnabled bool   `json:"moderation_enabled" bson:"moderationEnabled"`
	EmailNotification bool   `json:"email_notification" bson:"emailNotification"`
	EmailTemplate     string `json:"email_template" bson:"emailTemplate"`
	FormStyle         string `json:"form_style" bson:"formStyle"`
	SubmissionLimit   uint   `json:"submission_limit" bson:"submissionLimit"`
	SpamProtection    bool   `json:"spam_protection" bson:"spamProtection"`
}

// Defaults returns the first-run settings.
func Defaults(defaultCategory string) Settings {
	return Settings{
		DefaultCategory:   defaultCategory,
		ModerationEnabled: true,
		EmailNotification: true,
		EmailTemplate:     DefaultEmailTemplate,
		FormStyle:         StyleLight,
		SubmissionLimit:   DefaultSubmissionLimit,
		SpamProtection:    true,
	}
}

// Template returns the admin notification template, falling back to the default.
func (s Settings) Template() string {
	if strings.TrimSpace(s.EmailTemplate) == "" {
		return DefaultEmailTemplate
	}
	return s.EmailTemplate
}

// Patch is a partial update; nil fields keep their current value.
type Patch struct {
	DefaultCategory   *string `json:"default_category"`
	ModerationEnabled *bool   `json:"moderation_enabled"`
	EmailNotification *bool   `json:"email_notification"`
	EmailTemplate     *string `json:"email_template"`
	FormStyle         *string `json:"form_style"`
	SubmissionLimit   *int64  `json:"submission_limit"`
	SpamProtection    *bool   `json:"spam_protection"`
}

// Apply merges p into s, sanitizing each field. Unknown categories become
// empty, unknown styles become light, negative limits become 0 (unlimited).
func (p Patch) Apply(s Settings, categories []string) Settings {
	if p.DefaultCategory != nil {
		s.DefaultCategory = sanitizeCategory(*p.DefaultCategory, categories)
	}
	if p.ModerationEnabled != nil {
		s.ModerationEnabled = *p.ModerationEnabled
	}
	if p.EmailNotification != nil {
		s.EmailNotification = *p.EmailNotification
	}
	if p.EmailTemplate != nil {
		s.EmailTemplate = sanitizeTemplate(*p.EmailTemplate)
	}
	if p.FormStyle != nil {
		s.FormStyle = sanitizeStyle(*p.FormStyle)
	}
	if p.SubmissionLimit != nil {
		if *p.SubmissionLimit < 0 {
			s.SubmissionLimit = 0
		} else {
			s.SubmissionLimit = uint(*p.SubmissionLimit)
		}
	}
	if p.SpamProtection != nil {
		s.SpamProtection = *p.SpamProtection
	}
	return s
}

func sanitizeCategory(c string, categories []string) string {
	c = strings.TrimSpace(c)
	for _, known := range categories {
		if c == known {
			return c
		}
	}
	return ""
}

func sanitizeStyle(s string) string {
	if strings.ToLower(strings.TrimSpace(s)) == StyleDark {
		return StyleDark
	}
	return StyleLight
}

func sanitizeTemplate(t string) string {
	t = strings.ReplaceAll(t, "\r\n", "\n")
	return strings.TrimSpace(t)
}
