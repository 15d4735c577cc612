package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"gorm.io/gorm"
)

// submissionRow is the SQL table layout.
type submissionRow struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Title          string    `gorm:"not null"`
	Content        string    `gorm:"type:text;not null"`
	Status         string    `gorm:"index:idx_status_created,priority:1;not null"`
	CreatedAt      time.Time `gorm:"index:idx_status_created,priority:2;autoCreateTime:false"`
	AuthorName     string
	AuthorEmail    string `gorm:"index"`
	AuthorBio      string `gorm:"type:text"`
	FeaturedImage  string
	Category       string
	PreviousStatus string
	TrashedAt      *time.Time
}

func (submissionRow) TableName() string { return "guest_submissions" }

// GormRepo stores submissions in a SQL database (SQLite in practice).
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo migrates the table and returns the repository.
func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(&submissionRow{}); err != nil {
		return nil, err
	}
	return &GormRepo{db: db}, nil
}

func (g *GormRepo) Create(ctx context.Context, s *submission.Submission) (string, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = submission.CreationTime(s.CreatedAt)
	row := toRow(s)
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	s.ID = strconv.FormatUint(uint64(row.ID), 10)
	return s.ID, nil
}

func (g *GormRepo) Get(ctx context.Context, id string) (*submission.Submission, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, submission.ErrNotFound
	}
	var row submissionRow
	if err := g.db.WithContext(ctx).First(&row, n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, submission.ErrNotFound
		}
		return nil, err
	}
	return fromRow(row), nil
}

func (g *GormRepo) ListPending(ctx context.Context, limit int) ([]*submission.Submission, int64, error) {
	q := g.db.WithContext(ctx).Model(&submissionRow{}).
		Where("status = ? AND author_email <> ''", string(submission.StatusPending)).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []submissionRow
	find := q.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		find = find.Limit(limit)
	}
	if err := find.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*submission.Submission, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, total, nil
}

func (g *GormRepo) UpdateStatus(ctx context.Context, id string, status submission.Status) error {
	return g.updates(ctx, id, map[string]interface{}{"status": string(status)})
}

func (g *GormRepo) Trash(ctx context.Context, id string) error {
	now := time.Now().UTC()
	trashed := string(submission.StatusTrashed)
	// an already trashed row keeps the status it had before its first trashing
	return g.updates(ctx, id, map[string]interface{}{
		"previous_status": gorm.Expr("CASE WHEN status = ? THEN previous_status ELSE status END", trashed),
		"trashed_at":      gorm.Expr("CASE WHEN status = ? THEN trashed_at ELSE ? END", trashed, now),
		"status":          trashed,
	})
}

func (g *GormRepo) AttachFeaturedImage(ctx context.Context, id, ref string) error {
	return g.updates(ctx, id, map[string]interface{}{"featured_image": ref})
}

func (g *GormRepo) updates(ctx context.Context, id string, fields map[string]interface{}) error {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return submission.ErrNotFound
	}
	res := g.db.WithContext(ctx).Model(&submissionRow{}).Where("id = ?", n).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func toRow(s *submission.Submission) submissionRow {
	return submissionRow{
		Title:          s.Title,
		Content:        s.Content,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		AuthorName:     s.AuthorName,
		AuthorEmail:    s.AuthorEmail,
		AuthorBio:      s.AuthorBio,
		FeaturedImage:  s.FeaturedImageRef,
		Category:       s.Category,
		PreviousStatus: string(s.PreviousStatus),
	}
}

func fromRow(r submissionRow) *submission.Submission {
	s := &submission.Submission{
		ID:               strconv.FormatUint(uint64(r.ID), 10),
		Title:            r.Title,
		Content:          r.Content,
		Status:           submission.Status(r.Status),
		CreatedAt:        r.CreatedAt.UTC(),
		AuthorName:       r.AuthorName,
		AuthorEmail:      r.AuthorEmail,
		AuthorBio:        r.AuthorBio,
		FeaturedImageRef: r.FeaturedImage,
		Category:         r.Category,
		PreviousStatus:   submission.Status(r.PreviousStatus),
	}
	if r.TrashedAt != nil {
		s.TrashedAt = r.TrashedAt.UTC()
	}
	return s
}
