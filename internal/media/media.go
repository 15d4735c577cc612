package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize caps a featured image upload.
const MaxImageSize = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrEmpty           = errors.New("empty upload")
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Store keeps uploaded objects and returns their key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Presigner is implemented by stores that hand out temporary read URLs.
type Presigner interface {
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// URLTTL bounds presigned featured image URLs.
const URLTTL = time.Hour

// Image is a validated featured image ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ReadImage reads at most MaxImageSize bytes from r and checks by content that
// it is a JPEG, PNG or GIF. The client-declared type is ignored.
func ReadImage(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxImageSize {
		return nil, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	for _, ct := range []string{"image/jpeg", "image/png", "image/gif"} {
		if mt.Is(ct) {
			return &Image{Data: data, ContentType: ct, Ext: allowed[ct]}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// Images stores featured images under featured/<submission id>/<uuid><ext>.
type Images struct {
	store Store
}

func NewImages(store Store) *Images {
	return &Images{store: store}
}

// SaveFeatured validates r and stores it for submissionID, returning the object key.
func (i *Images) SaveFeatured(ctx context.Context, submissionID string, r io.Reader) (string, error) {
	img, err := ReadImage(r)
	if err != nil {
		return "", err
	}
	key := path.Join("featured", submissionID, uuid.NewString()+img.Ext)
	if err := i.store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// URL returns a readable URL for ref. Stores that cannot presign, or fail to,
// yield ref itself.
func (i *Images) URL(ctx context.Context, ref string) string {
	if i == nil || ref == "" {
		return ref
	}
	if p, ok := i.store.(Presigner); ok {
		if u, err := p.PresignedURL(ctx, ref, URLTTL); err == nil {
			return u
		}
	}
	return ref
}

// MemoryStore keeps objects in a map; used when no object store is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

// Object returns the stored bytes and content type for key.
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
