// Package cache is the durable client-side copy of the dashboard state.
// Collections are always replaced wholesale so the cache mirrors the
// in-memory stores after every successful load or mutation.
package cache

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/bizdash/internal/model"
)

// Cache persists todos, agreements and their lists in SQLite.
type Cache struct {
	db *sqlx.DB
}

// Open opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func Open(ctx context.Context, dbPath string) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := New(db)
	if err := c.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// New wraps an existing connection. The schema is assumed current.
func New(db *sqlx.DB) *Cache {
	return &Cache{db: db}
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Migrate checks the current schema version and applies any
// outstanding migrations in order.
func (c *Cache) Migrate(ctx context.Context) error {
	currentVersion := 0

	var tableCount int
	err := c.db.GetContext(ctx,
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.GetContext(ctx, &currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceTodos swaps the cached todos for the given set.
func (c *Cache) ReplaceTodos(ctx context.Context, todos []model.Todo) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM todos"); err != nil {
		return fmt.Errorf("clearing todos: %w", err)
	}

	const query = `
		INSERT INTO todos (
			id, list_id, title, completed, due_date,
			priority, notes, created_at, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing todo insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range todos {
		priority := t.Priority
		if priority == "" {
			priority = model.PriorityNone
		}
		_, err = stmt.ExecContext(ctx,
			t.ID, t.ListID, t.Title, boolToInt(t.Completed), t.DueDate,
			string(priority), t.Notes, t.CreatedAt.UTC(), t.UserID,
		)
		if err != nil {
			return fmt.Errorf("caching todo %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// Todos returns cached todos in creation order, restricted to listID
// when it is non-nil.
func (c *Cache) Todos(ctx context.Context, listID *string) ([]model.Todo, error) {
	q := sq.Select("*").From("todos").OrderBy("created_at", "id")
	if listID != nil {
		q = q.Where(sq.Eq{"list_id": *listID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building todo query: %w", err)
	}

	todos := []model.Todo{}
	if err := c.db.SelectContext(ctx, &todos, query, args...); err != nil {
		return nil, fmt.Errorf("querying cached todos: %w", err)
	}
	return todos, nil
}

// ReplaceTodoLists swaps the cached todo lists for the given set.
func (c *Cache) ReplaceTodoLists(ctx context.Context, lists []model.TodoList) error {
	return c.replaceNamed(ctx, "todo_lists", `
		INSERT INTO todo_lists (id, name, color, user_id)
		VALUES (:id, :name, :color, :user_id)`,
		len(lists), func(i int) interface{} { return lists[i] })
}

// TodoLists returns the cached todo lists ordered by name.
func (c *Cache) TodoLists(ctx context.Context) ([]model.TodoList, error) {
	lists := []model.TodoList{}
	if err := c.db.SelectContext(ctx, &lists, "SELECT * FROM todo_lists ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("querying cached todo lists: %w", err)
	}
	return lists, nil
}

// ReplaceAgreements swaps the cached agreements for the given set.
func (c *Cache) ReplaceAgreements(ctx context.Context, agreements []model.Agreement) error {
	return c.replaceNamed(ctx, "agreements", `
		INSERT INTO agreements (
			id, element, responsible, status, sj_status,
			request_date, delivery_date, description, sj_request,
			deliverable, deliverable_name, list_id
		) VALUES (
			:id, :element, :responsible, :status, :sj_status,
			:request_date, :delivery_date, :description, :sj_request,
			:deliverable, :deliverable_name, :list_id
		)`,
		len(agreements), func(i int) interface{} { return agreements[i] })
}

// Agreements returns cached agreements, restricted to listID when non-nil.
func (c *Cache) Agreements(ctx context.Context, listID *string) ([]model.Agreement, error) {
	q := sq.Select("*").From("agreements").OrderBy("rowid")
	if listID != nil {
		q = q.Where(sq.Eq{"list_id": *listID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building agreement query: %w", err)
	}

	agreements := []model.Agreement{}
	if err := c.db.SelectContext(ctx, &agreements, query, args...); err != nil {
		return nil, fmt.Errorf("querying cached agreements: %w", err)
	}
	return agreements, nil
}

// ReplaceAgreementLists swaps the cached agreement lists for the given set.
func (c *Cache) ReplaceAgreementLists(ctx context.Context, lists []model.AgreementList) error {
	return c.replaceNamed(ctx, "agreement_lists", `
		INSERT INTO agreement_lists (id, name, color, user_id)
		VALUES (:id, :name, :color, :user_id)`,
		len(lists), func(i int) interface{} { return lists[i] })
}

// AgreementLists returns the cached agreement lists ordered by name.
func (c *Cache) AgreementLists(ctx context.Context) ([]model.AgreementList, error) {
	lists := []model.AgreementList{}
	if err := c.db.SelectContext(ctx, &lists, "SELECT * FROM agreement_lists ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("querying cached agreement lists: %w", err)
	}
	return lists, nil
}

// replaceNamed clears table and inserts n rows with a named query in a
// single transaction.
func (c *Cache) replaceNamed(
	ctx context.Context,
	table string,
	insert string,
	n int,
	row func(i int) interface{},
) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}

	for i := 0; i < n; i++ {
		if _, err := tx.NamedExecContext(ctx, insert, row(i)); err != nil {
			return fmt.Errorf("caching %s row %d: %w", table, i, err)
		}
	}

	return tx.Commit()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
