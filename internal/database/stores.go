package database

import (
	"context"
	"fmt"

	"github.com/guestpost/guestpost/backend/go-services/internal/config"
	"github.com/guestpost/guestpost/backend/go-services/internal/sessions"
	"github.com/guestpost/guestpost/backend/go-services/internal/settings"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"github.com/guestpost/guestpost/backend/go-services/internal/submission/repository"
	"github.com/guestpost/guestpost/backend/go-services/internal/users"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoAttempts bounds the startup retry loop.
const mongoAttempts = 5

// Stores groups the durable repositories for the selected driver.
type Stores struct {
	Driver      string
	Submissions submission.Repository
	Settings    settings.Repository
	Users       users.UserRepository
	// Sessions is nil unless Mongo is in use; callers may prefer Redis.
	Sessions sessions.Repository

	mongo *mongo.Client
	close func() error
}

// Open connects the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, err := ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB.Database)
		logger.Infof("connected to MongoDB database %s", cfg.MongoDB.Database)
		return &Stores{
			Driver:      "mongo",
			Submissions: repository.NewMongoRepo(ctx, db.Collection(SubmissionsCollection)),
			Settings:    settings.NewMongoRepository(db.Collection(OptionsCollection)),
			Users:       users.NewMongoUserRepository(db.Collection(UsersCollection)),
			Sessions:    sessions.NewMongoRepository(ctx, db.Collection(SessionsCollection)),
			mongo:       client,
			close:       func() error { return client.Disconnect(context.Background()) },
		}, nil
	case "sqlite":
		db, err := OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		subs, err := repository.NewGormRepo(db)
		if err != nil {
			return nil, fmt.Errorf("sqlite submissions: %w", err)
		}
		opts, err := settings.NewGormRepository(db)
		if err != nil {
			return nil, fmt.Errorf("sqlite settings: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		logger.Infof("using SQLite store at %s", cfg.SQLite.Path)
		return &Stores{
			Driver:      "sqlite",
			Submissions: subs,
			Settings:    opts,
			Users:       users.NewMemoryUserRepository(),
			close:       sqlDB.Close,
		}, nil
	case "memory":
		logger.Warnf("using in-memory store; submissions are lost on restart")
		return &Stores{
			Driver:      "memory",
			Submissions: repository.NewMemoryRepo(),
			Settings:    settings.NewMemoryRepository(),
			Users:       users.NewMemoryUserRepository(),
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Ping reports whether the backing database answers.
func (s *Stores) Ping(ctx context.Context) error {
	if s.mongo == nil {
		return nil
	}
	return s.mongo.Ping(ctx, nil)
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
