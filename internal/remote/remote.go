// Package remote is the REST sync adapter used by the stores to fetch and
// persist todos, lists and agreements.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/bizdash/internal/model"
)

var (
	// ErrMissingCredential is returned before any request is attempted
	// when no bearer token is available.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrNotFound is matched by errors for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrCircuitOpen is returned while the backend is considered down.
	ErrCircuitOpen = errors.New("remote unavailable (circuit open)")
)

// AuthError indicates that the backend rejected the bearer credential.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body)
}

// Unwrap lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err signals a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// TodoRemote is the part of the backend the TodoStore depends on.
type TodoRemote interface {
	FetchTodos(ctx context.Context) ([]model.Todo, error)
	FetchTodoLists(ctx context.Context) ([]model.TodoList, error)

	// CreateTodo returns the stored entity, including the server id.
	CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error)
	UpdateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error)
	ToggleTodo(ctx context.Context, id string) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error

	CreateTodoList(ctx context.Context, list model.TodoList) (*model.TodoList, error)
	UpdateTodoList(ctx context.Context, list model.TodoList) (*model.TodoList, error)
	DeleteTodoList(ctx context.Context, id string) error
}

// AgreementRemote is the part of the backend the AgreementStore depends on.
type AgreementRemote interface {
	FetchAgreements(ctx context.Context) ([]model.Agreement, error)
	FetchAgreementLists(ctx context.Context) ([]model.AgreementList, error)

	CreateAgreement(ctx context.Context, a model.Agreement) (*model.Agreement, error)
	UpdateAgreement(ctx context.Context, a model.Agreement) (*model.Agreement, error)
	UpdateAgreementStatus(
		ctx context.Context,
		id string,
		field model.StatusField,
		status model.AgreementStatus,
	) (*model.Agreement, error)
	DeleteAgreement(ctx context.Context, id string) error

	CreateAgreementList(ctx context.Context, list model.AgreementList) (*model.AgreementList, error)
	DeleteAgreementList(ctx context.Context, id string) error
}

// Remote is the full backend contract. *Client implements it.
type Remote interface {
	TodoRemote
	AgreementRemote
}

var _ Remote = (*Client)(nil)
