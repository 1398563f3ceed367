// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrListNotFound  = fmt.Errorf("product list %w", ErrNotFound)
	ErrItemNotFound  = fmt.Errorf("product item %w", ErrNotFound)
	ErrInvalidID     = errors.New("invalid ID")
	ErrNilList       = errors.New("product list cannot be nil")
	ErrDuplicateItem = errors.New("duplicate item ID in list")
)

// Store defines the interface for product list and item storage.
// A list exclusively owns its items: they are only reachable through
// their list and are removed together with it.
type Store interface {
	// Lists returns all product lists in creation order.
	Lists(ctx context.Context) ([]model.ProductList, error)

	// GetList retrieves a list, including its items, by ID.
	GetList(ctx context.Context, id string) (*model.ProductList, error)

	// CreateList adds a new list and returns it with a generated ID.
	// Items on the input are ignored.
	CreateList(ctx context.Context, list *model.ProductList) (*model.ProductList, error)

	// UpdateList renames an existing list. Its items are left untouched.
	UpdateList(ctx context.Context, id string, list *model.ProductList) (*model.ProductList, error)

	// DeleteList removes a list and every item it owns.
	DeleteList(ctx context.Context, id string) error

	// Items returns the list's items in their stored order.
	Items(ctx context.Context, listID string) ([]model.ProductItem, error)

	// SetItems replaces the whole item collection of a list.
	SetItems(ctx context.Context, listID string, items []model.ProductItem) error

	// ReplaceItem removes the item oldID, if present, and appends item as
	// one atomic write. An empty oldID only appends. With mustExist set a
	// missing oldID fails with ErrItemNotFound and nothing is written.
	ReplaceItem(
		ctx context.Context,
		listID, oldID string,
		item model.ProductItem,
		mustExist bool,
	) error

	// DeleteItem removes a single item from a list.
	DeleteItem(ctx context.Context, listID, itemID string) error
}

// checkItems enforces non-empty, unique item IDs within a collection.
func checkItems(items []model.ProductItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			return ErrInvalidID
		}
		if _, dup := seen[item.ID]; dup {
			return ErrDuplicateItem
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}
