package logos

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// MaxLogoBytes is the largest accepted upload
const MaxLogoBytes = 5 << 20

var (
	// ErrTooLarge is returned for uploads over MaxLogoBytes
	ErrTooLarge = errors.New("logo must be 5 MB or smaller")
	// ErrUnsupportedType is returned for anything but PNG and JPEG
	ErrUnsupportedType = errors.New("logo must be a PNG or JPEG image")
)

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
}

// Service validates and stores account logos
type Service struct {
	store ObjectStore
}

// NewService creates a logo service on top of store
func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// Upload stores data for accountID and returns its object key
func (s *Service) Upload(ctx context.Context, accountID uuid.UUID, data []byte) (string, error) {
	if len(data) > MaxLogoBytes {
		return "", ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := fmt.Sprintf("logos/%s/%s.%s", accountID, uuid.New(), ext)
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Load returns the logo under key, or nil when key is empty
func (s *Service) Load(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	return s.store.Get(ctx, key)
}

// Remove deletes a previously uploaded logo
func (s *Service) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.store.Delete(ctx, key)
}
