package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/stockroom/backend/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

// ItemRepository is the persistence contract for items. Lookups,
// updates and deletes against an id with no record report
// ErrItemNotFound rather than a store error.
type ItemRepository interface {
	FindAll(ctx context.Context) ([]*models.Item, error)
	FindByID(ctx context.Context, id string) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	UpdateByID(ctx context.Context, id string, update models.ItemUpdate) (*models.Item, error)
	DeleteByID(ctx context.Context, id string) (*models.Item, error)
}

// MemoryItemRepository keeps items in a mutex-guarded map. It backs the
// tests and the no-Mongo fallback; contents do not survive a restart.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Item
	order []string // insertion order for FindAll
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		items: make(map[string]*models.Item),
	}
}

func cloneItem(item *models.Item) *models.Item {
	itemCopy := *item
	itemCopy.Images = append([]string{}, item.Images...)
	return &itemCopy
}

func (r *MemoryItemRepository) FindAll(ctx context.Context) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*models.Item, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, cloneItem(r.items[id]))
	}
	return items, nil
}

func (r *MemoryItemRepository) FindByID(ctx context.Context, id string) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (r *MemoryItemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneItem(item)
	stored.ID = uuid.New().String()

	r.items[stored.ID] = stored
	r.order = append(r.order, stored.ID)

	return cloneItem(stored), nil
}

func (r *MemoryItemRepository) UpdateByID(ctx context.Context, id string, update models.ItemUpdate) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, ErrItemNotFound
	}

	item.Sku = update.Sku
	item.Name = update.Name
	item.Qty = update.Qty
	item.Description = update.Description
	item.Price = update.Price
	item.Starred = update.Starred
	if update.Images != nil {
		item.Images = append([]string{}, (*update.Images)...)
	}

	return cloneItem(item), nil
}

func (r *MemoryItemRepository) DeleteByID(ctx context.Context, id string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, ErrItemNotFound
	}

	delete(r.items, id)
	for i, storedID := range r.order {
		if storedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return item, nil
}
