// Package store holds the authoritative in-memory state of a dashboard
// session: todos with their lists, and agreements with theirs. Stores are
// explicit objects built once per session around an optional remote
// backend and an optional durable cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/remote"
)

var (
	// ErrNotFound is returned by every operation addressing an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrStale is returned when a remote result arrives after the store
	// was invalidated; the result is discarded.
	ErrStale = errors.New("result discarded: store was invalidated")

	// ErrInvalidStatus is returned for values outside the agreement
	// status enum or an unknown status field.
	ErrInvalidStatus = errors.New("invalid agreement status")

	// ErrNoRemote is returned by Load when the store runs local only.
	ErrNoRemote = errors.New("no remote configured")
)

// TodoCache is the durable copy of todo state.
type TodoCache interface {
	ReplaceTodos(ctx context.Context, todos []model.Todo) error
	ReplaceTodoLists(ctx context.Context, lists []model.TodoList) error
	Todos(ctx context.Context, listID *string) ([]model.Todo, error)
	TodoLists(ctx context.Context) ([]model.TodoList, error)
}

// AgreementCache is the durable copy of agreement state.
type AgreementCache interface {
	ReplaceAgreements(ctx context.Context, agreements []model.Agreement) error
	ReplaceAgreementLists(ctx context.Context, lists []model.AgreementList) error
	Agreements(ctx context.Context, listID *string) ([]model.Agreement, error)
	AgreementLists(ctx context.Context) ([]model.AgreementList, error)
}

// settings are the dependencies shared by both stores.
type settings struct {
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func defaultSettings() settings {
	return settings{
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Option configures a store.
type Option func(*settings)

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithClock replaces time.Now, which drives creation timestamps and the
// "today" filter.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new entities.
func WithIDGenerator(newID func() string) Option {
	return func(s *settings) { s.newID = newID }
}

// remoteErr maps backend not-found responses onto ErrNotFound.
func remoteErr(err error) error {
	if err == nil {
		return nil
	}
	if remote.IsNotFound(err) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// IsNotFound reports whether err signals an unknown id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
