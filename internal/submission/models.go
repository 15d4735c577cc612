package submission

import "time"

// Status of a submission. Only the moderation machine moves records out of pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusTrashed   Status = "trashed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusTrashed:
		return true
	}
	return false
}

// Submission is a guest article together with its author metadata.
type Submission struct {
	ID               string    `json:"id" bson:"-"`
	Title            string    `json:"title" bson:"title"`
	Content          string    `json:"content" bson:"content"`
	Status           Status    `json:"status" bson:"status"`
	CreatedAt        time.Time `json:"created_at" bson:"createdAt"`
	AuthorName       string    `json:"author_name" bson:"authorName"`
	AuthorEmail      string    `json:"author_email" bson:"authorEmail"`
	AuthorBio        string    `json:"author_bio,omitempty" bson:"authorBio,omitempty"`
	FeaturedImageRef string    `json:"featured_image,omitempty" bson:"featuredImage,omitempty"`
	Category         string    `json:"category,omitempty" bson:"category,omitempty"`
	PreviousStatus   Status    `json:"previous_status,omitempty" bson:"previousStatus,omitempty"`
	TrashedAt        time.Time `json:"trashed_at,omitempty" bson:"trashedAt,omitempty"`
}

// IsGuest reports whether the record came in through the public form.
// Records without author email are out of scope for moderation.
func (s *Submission) IsGuest() bool {
	return s.AuthorEmail != ""
}

// CreationTime normalizes t the way every repository stores it: UTC, whole seconds.
func CreationTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
