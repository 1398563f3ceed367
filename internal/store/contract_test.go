package store

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// storeFactories lists every Store implementation run through the
// shared behaviour tests below.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	return map[string]func(t *testing.T) Store{
		"memory": func(_ *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "shoplist.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() failed: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func mustCreateList(t *testing.T, s Store, name string) *model.ProductList {
	t.Helper()

	list, err := s.CreateList(context.Background(), &model.ProductList{Name: name})
	if err != nil {
		t.Fatalf("CreateList() failed: %v", err)
	}
	return list
}

func TestStore_CreateAndGetList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()

		// Act
		created, err := s.CreateList(ctx, &model.ProductList{
			Name:      "Groceries",
			CreatedBy: "alice",
			Items:     []model.ProductItem{{ID: "ignored"}},
		})

		// Assert
		if err != nil {
			t.Fatalf("CreateList() unexpected error: %v", err)
		}
		if created.ID == "" {
			t.Error("CreateList() should generate an ID")
		}
		if len(created.Items) != 0 {
			t.Errorf("new list should have no items, got %d", len(created.Items))
		}

		got, err := s.GetList(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetList() unexpected error: %v", err)
		}
		if got.Name != "Groceries" || got.CreatedBy != "alice" {
			t.Errorf("GetList() = %+v", got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("timestamps should be set")
		}
	})
}

func TestStore_CreateList_Nil(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Act
		_, err := s.CreateList(context.Background(), nil)

		// Assert
		if !errors.Is(err, ErrNilList) {
			t.Errorf("CreateList(nil) error = %v, want %v", err, ErrNilList)
		}
	})
}

func TestStore_GetList_Errors(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		tests := []struct {
			name    string
			id      string
			wantErr error
		}{
			{name: "empty id", id: "", wantErr: ErrInvalidID},
			{name: "missing list", id: "missing", wantErr: ErrListNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Act
				_, err := s.GetList(context.Background(), tt.id)

				// Assert
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetList() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})
}

func TestStore_ListsInCreationOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		first := mustCreateList(t, s, "first")
		second := mustCreateList(t, s, "second")
		third := mustCreateList(t, s, "third")

		// Act
		lists, err := s.Lists(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Lists() unexpected error: %v", err)
		}
		want := []string{first.ID, second.ID, third.ID}
		if len(lists) != len(want) {
			t.Fatalf("Lists() returned %d lists, want %d", len(lists), len(want))
		}
		for i, id := range want {
			if lists[i].ID != id {
				t.Errorf("lists[%d].ID = %s, want %s", i, lists[i].ID, id)
			}
		}
	})
}

func TestStore_UpdateListKeepsItems(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Old name")
		items := []model.ProductItem{{ID: "a1", Name: "Milk", Amount: "5", Qtd: "2", Brand: "X"}}
		if err := s.SetItems(ctx, list.ID, items); err != nil {
			t.Fatalf("SetItems() failed: %v", err)
		}

		// Act
		updated, err := s.UpdateList(ctx, list.ID, &model.ProductList{Name: "New name"})

		// Assert
		if err != nil {
			t.Fatalf("UpdateList() unexpected error: %v", err)
		}
		if updated.Name != "New name" {
			t.Errorf("Name = %s, want New name", updated.Name)
		}
		if len(updated.Items) != 1 || updated.Items[0] != items[0] {
			t.Errorf("Items = %+v, want %+v", updated.Items, items)
		}
		if !updated.CreatedAt.Equal(list.CreatedAt) {
			t.Error("CreatedAt should not change on update")
		}
	})
}

func TestStore_UpdateList_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Act
		_, err := s.UpdateList(context.Background(), "missing", &model.ProductList{Name: "x"})

		// Assert
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateList() error = %v, want %v", err, ErrNotFound)
		}
	})
}

func TestStore_DeleteListRemovesItems(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		if err := s.SetItems(ctx, list.ID, []model.ProductItem{{ID: "a1", Name: "Milk"}}); err != nil {
			t.Fatalf("SetItems() failed: %v", err)
		}

		// Act
		err := s.DeleteList(ctx, list.ID)

		// Assert
		if err != nil {
			t.Fatalf("DeleteList() unexpected error: %v", err)
		}
		if _, err := s.Items(ctx, list.ID); !errors.Is(err, ErrListNotFound) {
			t.Errorf("Items() after delete error = %v, want %v", err, ErrListNotFound)
		}
		if err := s.DeleteList(ctx, list.ID); !errors.Is(err, ErrListNotFound) {
			t.Errorf("second DeleteList() error = %v, want %v", err, ErrListNotFound)
		}
	})
}

func TestStore_SetItemsKeepsOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		items := []model.ProductItem{
			{ID: "c3", Name: "Eggs", Amount: "12", Qtd: "1", Brand: "Farm"},
			{ID: "a1", Name: "Milk", Amount: "5", Qtd: "2", Brand: "X"},
			{ID: "b2", Name: "Bread", Amount: "7.5", Qtd: "1", Brand: ""},
		}

		// Act
		err := s.SetItems(ctx, list.ID, items)

		// Assert
		if err != nil {
			t.Fatalf("SetItems() unexpected error: %v", err)
		}
		got, err := s.Items(ctx, list.ID)
		if err != nil {
			t.Fatalf("Items() unexpected error: %v", err)
		}
		if len(got) != len(items) {
			t.Fatalf("Items() returned %d items, want %d", len(got), len(items))
		}
		for i := range items {
			if got[i] != items[i] {
				t.Errorf("got[%d] = %+v, want %+v", i, got[i], items[i])
			}
		}
	})
}

func TestStore_SetItemsReplacesCollection(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		_ = s.SetItems(ctx, list.ID, []model.ProductItem{{ID: "a1"}, {ID: "b2"}})

		// Act
		err := s.SetItems(ctx, list.ID, []model.ProductItem{{ID: "z9", Name: "Only"}})

		// Assert
		if err != nil {
			t.Fatalf("SetItems() unexpected error: %v", err)
		}
		got, _ := s.Items(ctx, list.ID)
		if len(got) != 1 || got[0].ID != "z9" {
			t.Errorf("Items() = %+v, want only z9", got)
		}
	})
}

func TestStore_SetItems_Errors(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		list := mustCreateList(t, s, "Groceries")

		tests := []struct {
			name    string
			listID  string
			items   []model.ProductItem
			wantErr error
		}{
			{
				name:    "duplicate item ids",
				listID:  list.ID,
				items:   []model.ProductItem{{ID: "a1"}, {ID: "a1"}},
				wantErr: ErrDuplicateItem,
			},
			{
				name:    "empty item id",
				listID:  list.ID,
				items:   []model.ProductItem{{ID: ""}},
				wantErr: ErrInvalidID,
			},
			{
				name:    "empty list id",
				listID:  "",
				items:   nil,
				wantErr: ErrInvalidID,
			},
			{
				name:    "missing list",
				listID:  "missing",
				items:   []model.ProductItem{{ID: "a1"}},
				wantErr: ErrListNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Act
				err := s.SetItems(context.Background(), tt.listID, tt.items)

				// Assert
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SetItems() error = %v, want %v", err, tt.wantErr)
				}
			})
		}

		got, _ := s.Items(context.Background(), list.ID)
		if len(got) != 0 {
			t.Errorf("rejected writes must leave the collection unchanged, got %+v", got)
		}
	})
}

func TestStore_DeleteItem(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		_ = s.SetItems(ctx, list.ID, []model.ProductItem{{ID: "a1"}, {ID: "b2"}, {ID: "c3"}})

		// Act
		err := s.DeleteItem(ctx, list.ID, "b2")

		// Assert
		if err != nil {
			t.Fatalf("DeleteItem() unexpected error: %v", err)
		}
		got, _ := s.Items(ctx, list.ID)
		if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "c3" {
			t.Errorf("Items() = %+v, want a1, c3", got)
		}
		if err := s.DeleteItem(ctx, list.ID, "b2"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("second DeleteItem() error = %v, want %v", err, ErrItemNotFound)
		}
		if err := s.DeleteItem(ctx, "missing", "a1"); !errors.Is(err, ErrListNotFound) {
			t.Errorf("DeleteItem() on missing list error = %v, want %v", err, ErrListNotFound)
		}
		if err := s.DeleteItem(ctx, list.ID, ""); !errors.Is(err, ErrInvalidID) {
			t.Errorf("DeleteItem() with empty id error = %v, want %v", err, ErrInvalidID)
		}
	})
}

func TestStore_SameItemIDInDifferentLists(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		a := mustCreateList(t, s, "a")
		b := mustCreateList(t, s, "b")

		// Act
		errA := s.SetItems(ctx, a.ID, []model.ProductItem{{ID: "shared", Name: "in a"}})
		errB := s.SetItems(ctx, b.ID, []model.ProductItem{{ID: "shared", Name: "in b"}})

		// Assert
		if errA != nil || errB != nil {
			t.Fatalf("SetItems() errors: %v, %v", errA, errB)
		}
		itemsA, _ := s.Items(ctx, a.ID)
		itemsB, _ := s.Items(ctx, b.ID)
		if itemsA[0].Name != "in a" || itemsB[0].Name != "in b" {
			t.Errorf("items leaked between lists: %+v / %+v", itemsA, itemsB)
		}
	})
}

func TestStore_ReplaceItem(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		_ = s.SetItems(ctx, list.ID, []model.ProductItem{{ID: "a1"}, {ID: "b2"}, {ID: "c3"}})

		// Act
		errAppend := s.ReplaceItem(ctx, list.ID, "", model.ProductItem{ID: "d4", Name: "Milk"}, false)
		errSwap := s.ReplaceItem(ctx, list.ID, "b2", model.ProductItem{ID: "e5", Name: "Rice"}, true)

		// Assert
		if errAppend != nil || errSwap != nil {
			t.Fatalf("ReplaceItem() errors: %v, %v", errAppend, errSwap)
		}
		got, _ := s.Items(ctx, list.ID)
		want := []string{"a1", "c3", "d4", "e5"}
		if len(got) != len(want) {
			t.Fatalf("Items() = %+v, want ids %v", got, want)
		}
		for i, id := range want {
			if got[i].ID != id {
				t.Errorf("Items()[%d].ID = %q, want %q", i, got[i].ID, id)
			}
		}
		if got[3].Name != "Rice" {
			t.Errorf("replacement name = %q, want Rice", got[3].Name)
		}
	})
}

func TestStore_ReplaceItem_Errors(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		_ = s.SetItems(ctx, list.ID, []model.ProductItem{{ID: "a1"}, {ID: "b2"}})

		tests := []struct {
			name      string
			listID    string
			oldID     string
			item      model.ProductItem
			mustExist bool
			wantErr   error
		}{
			{
				name:      "strict edit of deleted item",
				listID:    list.ID,
				oldID:     "gone",
				item:      model.ProductItem{ID: "n1"},
				mustExist: true,
				wantErr:   ErrItemNotFound,
			},
			{
				name:    "new id already taken",
				listID:  list.ID,
				oldID:   "a1",
				item:    model.ProductItem{ID: "b2"},
				wantErr: ErrDuplicateItem,
			},
			{
				name:    "empty item id",
				listID:  list.ID,
				item:    model.ProductItem{},
				wantErr: ErrInvalidID,
			},
			{
				name:    "missing list",
				listID:  "missing",
				item:    model.ProductItem{ID: "n1"},
				wantErr: ErrListNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Act
				err := s.ReplaceItem(ctx, tt.listID, tt.oldID, tt.item, tt.mustExist)

				// Assert
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ReplaceItem() error = %v, want %v", err, tt.wantErr)
				}
			})
		}

		got, _ := s.Items(ctx, list.ID)
		if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "b2" {
			t.Errorf("rejected writes must leave the collection unchanged, got %+v", got)
		}
	})
}

func TestStore_ReplaceItem_ConcurrentAppends(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Arrange
		ctx := context.Background()
		list := mustCreateList(t, s, "Groceries")
		const writers = 20

		// Act
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				item := model.ProductItem{ID: "item-" + strconv.Itoa(n)}
				errs <- s.ReplaceItem(ctx, list.ID, "", item, false)
			}(i)
		}
		wg.Wait()
		close(errs)

		// Assert
		for err := range errs {
			if err != nil {
				t.Errorf("ReplaceItem() unexpected error: %v", err)
			}
		}
		got, _ := s.Items(ctx, list.ID)
		if len(got) != writers {
			t.Errorf("Items() returned %d items, want %d", len(got), writers)
		}
	})
}
