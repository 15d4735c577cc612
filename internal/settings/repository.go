package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OptionKey is the fixed key the settings document is stored under.
const OptionKey = "guest_post_settings"

// Repository persists the single settings value. Load reports ok=false when
// nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) (s Settings, ok bool, err error)
	Save(ctx context.Context, s Settings) error
}

type mongoSettings struct {
	Key      string `bson:"_id"`
	Settings `bson:",inline"`
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Load(ctx context.Context) (Settings, bool, error) {
	var doc mongoSettings
	err := r.col.FindOne(ctx, bson.M{"_id": OptionKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	return doc.Settings, true, nil
}

func (r *MongoRepository) Save(ctx context.Context, s Settings) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": OptionKey}, mongoSettings{Key: OptionKey, Settings: s}, options.Replace().SetUpsert(true))
	return err
}

// optionRow is a key/value row; the settings value is stored as JSON.
type optionRow struct {
	Name  string `gorm:"primaryKey;size:191"`
	Value string `gorm:"type:text"`
}

func (optionRow) TableName() string { return "options" }

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&optionRow{}); err != nil {
		return nil, err
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Load(ctx context.Context) (Settings, bool, error) {
	var row optionRow
	err := r.db.WithContext(ctx).Where("name = ?", OptionKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	var s Settings
	if err := json.Unmarshal([]byte(row.Value), &s); err != nil {
		return Settings{}, false, err
	}
	return s, true, nil
}

func (r *GormRepository) Save(ctx context.Context, s Settings) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	row := optionRow{Name: OptionKey, Value: string(b)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
}

type MemoryRepository struct {
	mu    sync.RWMutex
	value *Settings
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (r *MemoryRepository) Load(ctx context.Context) (Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.value == nil {
		return Settings{}, false, nil
	}
	return *r.value, true, nil
}

func (r *MemoryRepository) Save(ctx context.Context, s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = &s
	return nil
}
