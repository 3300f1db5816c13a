package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"myaje.io/checkout/models"
)

// ErrNotFound is returned by Load when no cart record has ever been saved,
// or after Delete removed it. The store treats it as an empty cart; it is
// distinct from a saved empty snapshot.
var ErrNotFound = errors.New("cart: no saved record")

// ErrCorrupt wraps a snapshot that no longer decodes. Loaders surface it so
// the store can fall back to an empty cart instead of failing.
var ErrCorrupt = errors.New("cart: corrupt saved record")

// Repository persists one cart snapshot. Save overwrites the whole record;
// Delete removes it entirely rather than writing an empty value.
type Repository interface {
	Load(ctx context.Context) ([]models.CartItem, error)
	Save(ctx context.Context, items []models.CartItem) error
	Delete(ctx context.Context) error
}

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps the serialized snapshot in memory. It backs tests
// and short-lived embedded use.
type MemoryRepository struct {
	mu      sync.RWMutex
	data    []byte
	present bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(_ context.Context) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.present {
		return nil, ErrNotFound
	}
	return decodeItems(r.data)
}

func (r *MemoryRepository) Save(_ context.Context, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.present = true
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = nil
	r.present = false
	return nil
}

// Exists reports whether a record is currently stored.
func (r *MemoryRepository) Exists() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.present
}

func decodeItems(data []byte) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return items, nil
}
