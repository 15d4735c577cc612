package settings

import (
	"context"
	"fmt"
)

// Service reads and updates settings. The value it returns is passed
// explicitly to intake and the notifier; nothing reads settings globally.
type Service struct {
	repo            Repository
	categories      []string
	defaultCategory string
}

// NewService takes the site's known categories; defaultCategory seeds the
// first-run value and must be one of them to stick.
func NewService(repo Repository, categories []string, defaultCategory string) *Service {
	if defaultCategory == "" && len(categories) > 0 {
		defaultCategory = categories[0]
	}
	return &Service{
		repo:            repo,
		categories:      append([]string(nil), categories...),
		defaultCategory: sanitizeCategory(defaultCategory, categories),
	}
}

// Get returns the stored settings, or the defaults when nothing is stored.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	v, ok, err := s.repo.Load(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return Defaults(s.defaultCategory), nil
	}
	return v, nil
}

// Update applies p to the current settings and persists the result.
func (s *Service) Update(ctx context.Context, p Patch) (Settings, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	next := p.Apply(cur, s.categories)
	if err := s.repo.Save(ctx, next); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return next, nil
}

// EnsureDefaults writes the defaults when nothing is stored yet.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	_, ok, err := s.repo.Load(ctx)
	if err != nil || ok {
		return err
	}
	return s.repo.Save(ctx, Defaults(s.defaultCategory))
}

func (s *Service) Categories() []string {
	return append([]string(nil), s.categories...)
}
