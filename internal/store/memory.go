package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]model.ProductList
	order []string
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists: make(map[string]model.ProductList),
	}
}

// Lists returns all product lists in creation order.
func (s *MemoryStore) Lists(
	ctx context.Context,
) ([]model.ProductList, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list product lists: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lists := make([]model.ProductList, 0, len(s.order))
	for _, id := range s.order {
		lists = append(lists, s.lists[id].Clone())
	}

	return lists, nil
}

// GetList retrieves a list, including its items, by ID.
func (s *MemoryStore) GetList(
	ctx context.Context,
	id string,
) (*model.ProductList, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get product list: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list, exists := s.lists[id]
	if !exists {
		return nil, ErrListNotFound
	}

	out := list.Clone()
	return &out, nil
}

// CreateList adds a new list and returns it with a generated ID.
func (s *MemoryStore) CreateList(
	ctx context.Context,
	list *model.ProductList,
) (*model.ProductList, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create product list: %w", ctx.Err())
	default:
	}

	if list == nil {
		return nil, fmt.Errorf("create product list: %w", ErrNilList)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	newList := model.ProductList{
		ID:        uuid.New().String(),
		Name:      list.Name,
		Items:     []model.ProductItem{},
		CreatedBy: list.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.lists[newList.ID] = newList
	s.order = append(s.order, newList.ID)

	out := newList.Clone()
	return &out, nil
}

// UpdateList renames an existing list.
func (s *MemoryStore) UpdateList(
	ctx context.Context,
	id string,
	list *model.ProductList,
) (*model.ProductList, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update product list: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	if list == nil {
		return nil, fmt.Errorf("update product list: %w", ErrNilList)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.lists[id]
	if !exists {
		return nil, ErrListNotFound
	}

	existing.Name = list.Name
	existing.UpdatedAt = time.Now().UTC()
	s.lists[id] = existing

	out := existing.Clone()
	return &out, nil
}

// DeleteList removes a list and every item it owns.
func (s *MemoryStore) DeleteList(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete product list: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lists[id]; !exists {
		return ErrListNotFound
	}

	delete(s.lists, id)
	for i, listID := range s.order {
		if listID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return nil
}

// Items returns the list's items in their stored order.
func (s *MemoryStore) Items(
	ctx context.Context,
	listID string,
) ([]model.ProductItem, error) {
	list, err := s.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// SetItems replaces the whole item collection of a list.
func (s *MemoryStore) SetItems(
	ctx context.Context,
	listID string,
	items []model.ProductItem,
) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("set items: %w", ctx.Err())
	default:
	}

	if listID == "" {
		return ErrInvalidID
	}

	if err := checkItems(items); err != nil {
		return fmt.Errorf("set items: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.lists[listID]
	if !exists {
		return ErrListNotFound
	}

	list.Items = model.CloneItems(items)
	list.UpdatedAt = time.Now().UTC()
	s.lists[listID] = list

	return nil
}

// ReplaceItem swaps oldID for item under the store lock.
func (s *MemoryStore) ReplaceItem(
	ctx context.Context,
	listID, oldID string,
	item model.ProductItem,
	mustExist bool,
) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("replace item: %w", ctx.Err())
	default:
	}

	if listID == "" || item.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.lists[listID]
	if !exists {
		return ErrListNotFound
	}

	kept := model.WithoutItem(list.Items, oldID)
	if mustExist && oldID != "" && len(kept) == len(list.Items) {
		return ErrItemNotFound
	}

	next := append(kept, item)
	if err := checkItems(next); err != nil {
		return err
	}

	list.Items = model.CloneItems(next)
	list.UpdatedAt = time.Now().UTC()
	s.lists[listID] = list

	return nil
}

// DeleteItem removes a single item from a list.
func (s *MemoryStore) DeleteItem(
	ctx context.Context,
	listID, itemID string,
) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if listID == "" || itemID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, exists := s.lists[listID]
	if !exists {
		return ErrListNotFound
	}

	remaining := model.WithoutItem(list.Items, itemID)
	if len(remaining) == len(list.Items) {
		return ErrItemNotFound
	}

	list.Items = remaining
	list.UpdatedAt = time.Now().UTC()
	s.lists[listID] = list

	return nil
}
