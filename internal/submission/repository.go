package submission

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("submission not found")

// Repository is the durable content store. Implementations assign ids on
// Create and return ErrNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, s *Submission) (string, error)
	Get(ctx context.Context, id string) (*Submission, error)
	// ListPending returns up to limit pending guest submissions, newest first,
	// and the total number of pending guest submissions.
	ListPending(ctx context.Context, limit int) ([]*Submission, int64, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	// Trash soft-deletes: the record keeps its data and remembers its previous status.
	Trash(ctx context.Context, id string) error
	AttachFeaturedImage(ctx context.Context, id, ref string) error
}
