package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	// SQLite driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS product_lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS product_items (
	list_id  TEXT NOT NULL REFERENCES product_lists(id) ON DELETE CASCADE,
	id       TEXT NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	amount   TEXT NOT NULL,
	qtd      TEXT NOT NULL,
	brand    TEXT NOT NULL,
	PRIMARY KEY (list_id, id)
);

CREATE INDEX IF NOT EXISTS idx_product_items_position ON product_items(list_id, position);
`

// SQLiteStore implements Store on top of a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps pragmas and writes consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Lists returns all product lists in creation order.
func (s *SQLiteStore) Lists(ctx context.Context) ([]model.ProductList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_by, created_at, updated_at
		 FROM product_lists ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list product lists: %w", err)
	}
	defer rows.Close()

	lists := []model.ProductList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("list product lists: %w", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list product lists: %w", err)
	}

	for i := range lists {
		items, err := s.queryItems(ctx, s.db, lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].Items = items
	}

	return lists, nil
}

// GetList retrieves a list, including its items, by ID.
func (s *SQLiteStore) GetList(ctx context.Context, id string) (*model.ProductList, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at, updated_at
		 FROM product_lists WHERE id = ?`, id)

	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product list: %w", err)
	}

	items, err := s.queryItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	list.Items = items

	return &list, nil
}

// CreateList adds a new list and returns it with a generated ID.
func (s *SQLiteStore) CreateList(ctx context.Context, list *model.ProductList) (*model.ProductList, error) {
	if list == nil {
		return nil, fmt.Errorf("create product list: %w", ErrNilList)
	}

	now := time.Now().UTC()
	newList := model.ProductList{
		ID:        uuid.New().String(),
		Name:      list.Name,
		Items:     []model.ProductItem{},
		CreatedBy: list.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_lists (id, name, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		newList.ID, newList.Name, newList.CreatedBy, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("create product list: %w", err)
	}

	return &newList, nil
}

// UpdateList renames an existing list.
func (s *SQLiteStore) UpdateList(ctx context.Context, id string, list *model.ProductList) (*model.ProductList, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	if list == nil {
		return nil, fmt.Errorf("update product list: %w", ErrNilList)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE product_lists SET name = ?, updated_at = ? WHERE id = ?`,
		list.Name, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return nil, fmt.Errorf("update product list: %w", err)
	}

	if err := requireAffected(res, ErrListNotFound); err != nil {
		return nil, err
	}

	return s.GetList(ctx, id)
}

// DeleteList removes a list and every item it owns.
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	return s.inTx(ctx, "delete product list", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_items WHERE list_id = ?`, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM product_lists WHERE id = ?`, id)
		if err != nil {
			return err
		}

		return requireAffected(res, ErrListNotFound)
	})
}

// Items returns the list's items in their stored order.
func (s *SQLiteStore) Items(ctx context.Context, listID string) ([]model.ProductItem, error) {
	if listID == "" {
		return nil, ErrInvalidID
	}

	if err := s.listExists(ctx, s.db, listID); err != nil {
		return nil, err
	}

	return s.queryItems(ctx, s.db, listID)
}

// SetItems replaces the whole item collection of a list in one transaction.
func (s *SQLiteStore) SetItems(ctx context.Context, listID string, items []model.ProductItem) error {
	if listID == "" {
		return ErrInvalidID
	}

	if err := checkItems(items); err != nil {
		return fmt.Errorf("set items: %w", err)
	}

	return s.inTx(ctx, "set items", func(tx *sql.Tx) error {
		if err := s.listExists(ctx, tx, listID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_items WHERE list_id = ?`, listID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO product_items (list_id, id, position, name, amount, qtd, brand)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for pos, item := range items {
			if _, err := stmt.ExecContext(ctx,
				listID, item.ID, pos, item.Name, item.Amount, item.Qtd, item.Brand,
			); err != nil {
				return err
			}
		}

		return touchList(ctx, tx, listID)
	})
}

// ReplaceItem swaps oldID for item inside one transaction. The new item
// takes the position after the current last item.
func (s *SQLiteStore) ReplaceItem(
	ctx context.Context,
	listID, oldID string,
	item model.ProductItem,
	mustExist bool,
) error {
	if listID == "" || item.ID == "" {
		return ErrInvalidID
	}

	return s.inTx(ctx, "replace item", func(tx *sql.Tx) error {
		if err := s.listExists(ctx, tx, listID); err != nil {
			return err
		}

		if oldID != "" {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM product_items WHERE list_id = ? AND id = ?`, listID, oldID)
			if err != nil {
				return err
			}
			if mustExist {
				if err := requireAffected(res, ErrItemNotFound); err != nil {
					return err
				}
			}
		}

		var taken int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM product_items WHERE list_id = ? AND id = ?`,
			listID, item.ID,
		).Scan(&taken)
		if err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicateItem
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_items (list_id, id, position, name, amount, qtd, brand)
			 SELECT ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?, ?, ?
			 FROM product_items WHERE list_id = ?`,
			listID, item.ID, item.Name, item.Amount, item.Qtd, item.Brand, listID,
		); err != nil {
			return err
		}

		return touchList(ctx, tx, listID)
	})
}

// DeleteItem removes a single item from a list.
func (s *SQLiteStore) DeleteItem(ctx context.Context, listID, itemID string) error {
	if listID == "" || itemID == "" {
		return ErrInvalidID
	}

	return s.inTx(ctx, "delete item", func(tx *sql.Tx) error {
		if err := s.listExists(ctx, tx, listID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM product_items WHERE list_id = ? AND id = ?`, listID, itemID)
		if err != nil {
			return err
		}

		if err := requireAffected(res, ErrItemNotFound); err != nil {
			return err
		}

		return touchList(ctx, tx, listID)
	})
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) queryItems(ctx context.Context, q queryer, listID string) ([]model.ProductItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, amount, qtd, brand FROM product_items
		 WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.ProductItem{}
	for rows.Next() {
		var item model.ProductItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Amount, &item.Qtd, &item.Brand); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	return items, nil
}

func (s *SQLiteStore) listExists(ctx context.Context, q queryer, listID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM product_lists WHERE id = ?`, listID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup product list: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction. Store sentinel errors pass through
// unwrapped so callers can match them with errors.Is.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func touchList(ctx context.Context, tx *sql.Tx, listID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE product_lists SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().UnixNano(), listID)
	return err
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func scanList(row rowScanner) (model.ProductList, error) {
	var (
		list      model.ProductList
		createdAt int64
		updatedAt int64
	)

	if err := row.Scan(&list.ID, &list.Name, &list.CreatedBy, &createdAt, &updatedAt); err != nil {
		return model.ProductList{}, err
	}

	list.CreatedAt = time.Unix(0, createdAt).UTC()
	list.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return list, nil
}
