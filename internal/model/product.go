// Package model defines data structures used throughout the application.
package model

import (
	"time"
)

// DefaultQtd is the quantity a new item form starts with.
const DefaultQtd = "1"

// ProductItem is a single shopping-list entry. Amount and Qtd hold the
// text the user typed; they are parsed only when totals are computed.
type ProductItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Qtd    string `json:"qtd"`
	Brand  string `json:"brand"`
}

// ProductList is a named collection of product items.
type ProductList struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Items     []ProductItem `json:"items"`
	CreatedBy string        `json:"createdBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Clone returns a copy of the list that shares no item storage with l.
func (l ProductList) Clone() ProductList {
	out := l
	out.Items = CloneItems(l.Items)
	return out
}

// CloneItems copies an item collection. A nil input yields an empty,
// non-nil slice so that JSON encodes it as [].
func CloneItems(items []ProductItem) []ProductItem {
	out := make([]ProductItem, len(items))
	copy(out, items)
	return out
}

// WithoutItem returns the items whose ID differs from id, keeping order.
func WithoutItem(items []ProductItem, id string) []ProductItem {
	out := make([]ProductItem, 0, len(items))
	for _, item := range items {
		if id != "" && item.ID == id {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ItemParams are the navigation parameters of the item form.
// ItemData is nil when a new item is being created.
type ItemParams struct {
	ItemData *ProductItem `json:"itemData,omitempty"`
	ListID   string       `json:"listId"`
}

// ListParams are the navigation parameters of the list form.
// ProductList is nil when a new list is being created.
type ListParams struct {
	ProductList *ProductList `json:"productList,omitempty"`
}
