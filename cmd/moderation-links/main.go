// Command moderation-links prints the approve and reject links for a guest
// submission, for operators re-sending a lost notification email.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/guestpost/guestpost/backend/go-services/internal/config"
	"github.com/guestpost/guestpost/backend/go-services/internal/database"
	"github.com/guestpost/guestpost/backend/go-services/internal/notify"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
)

func main() {
	id := flag.String("id", "", "submission id")
	timeout := flag.Duration("timeout", 30*time.Second, "store connection timeout")
	flag.Parse()
	if *id == "" {
		fmt.Fprintln(os.Stderr, "usage: moderation-links -id <submission id>")
		os.Exit(2)
	}

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	stores, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = stores.Close() }()

	links := notify.NewLinkBuilder(cfg.Site.URL, cfg.Site.AdminURL, cfg.Secrets.ActionToken)
	if err := printLinks(ctx, os.Stdout, stores.Submissions, links, *id); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func printLinks(ctx context.Context, w io.Writer, repo submission.Repository, links *notify.LinkBuilder, id string) error {
	s, err := repo.Get(ctx, id)
	if errors.Is(err, submission.ErrNotFound) {
		return fmt.Errorf("submission %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("load submission %s: %w", id, err)
	}
	if !s.IsGuest() {
		return fmt.Errorf("submission %s is not a guest submission", id)
	}
	fmt.Fprintf(w, "%s (%s) by %s <%s>\n", s.Title, s.Status, s.AuthorName, s.AuthorEmail)
	fmt.Fprintf(w, "approve: %s\n", links.ActionLink("approve", s.ID, s.CreatedAt))
	fmt.Fprintf(w, "reject:  %s\n", links.ActionLink("reject", s.ID, s.CreatedAt))
	fmt.Fprintf(w, "preview: %s\n", links.Preview(s.ID))
	return nil
}
