package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/bizdash/internal/model"
)

// API paths.
const (
	pathTodos          = "/todos"
	pathTodoLists      = "/todo-lists"
	pathAgreements     = "/agreements"
	pathAgreementLists = "/agreement-lists"
)

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

// FetchTodos calls GET /todos.
func (c *Client) FetchTodos(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.Get(ctx, pathTodos, &todos); err != nil {
		return nil, fmt.Errorf("fetching todos: %w", err)
	}
	return todos, nil
}

// FetchTodoLists calls GET /todo-lists.
func (c *Client) FetchTodoLists(ctx context.Context) ([]model.TodoList, error) {
	var lists []model.TodoList
	if err := c.Get(ctx, pathTodoLists, &lists); err != nil {
		return nil, fmt.Errorf("fetching todo lists: %w", err)
	}
	return lists, nil
}

// CreateTodo calls POST /todos and returns the stored todo.
func (c *Client) CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error) {
	var out model.Todo
	if err := c.Post(ctx, pathTodos, todo, &out); err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}
	return &out, nil
}

// UpdateTodo calls PUT /todos/{id}.
func (c *Client) UpdateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error) {
	var out model.Todo
	if err := c.Put(ctx, itemPath(pathTodos, todo.ID), todo, &out); err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", todo.ID, err)
	}
	return &out, nil
}

// ToggleTodo calls PATCH /todos/{id}/toggle.
func (c *Client) ToggleTodo(ctx context.Context, id string) (*model.Todo, error) {
	var out model.Todo
	if err := c.Patch(ctx, itemPath(pathTodos, id)+"/toggle", nil, &out); err != nil {
		return nil, fmt.Errorf("toggling todo %s: %w", id, err)
	}
	return &out, nil
}

// DeleteTodo calls DELETE /todos/{id}.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	if err := c.Delete(ctx, itemPath(pathTodos, id)); err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	return nil
}

// CreateTodoList calls POST /todo-lists.
func (c *Client) CreateTodoList(ctx context.Context, list model.TodoList) (*model.TodoList, error) {
	var out model.TodoList
	if err := c.Post(ctx, pathTodoLists, list, &out); err != nil {
		return nil, fmt.Errorf("creating todo list: %w", err)
	}
	return &out, nil
}

// UpdateTodoList calls PUT /todo-lists/{id}.
func (c *Client) UpdateTodoList(ctx context.Context, list model.TodoList) (*model.TodoList, error) {
	var out model.TodoList
	if err := c.Put(ctx, itemPath(pathTodoLists, list.ID), list, &out); err != nil {
		return nil, fmt.Errorf("updating todo list %s: %w", list.ID, err)
	}
	return &out, nil
}

// DeleteTodoList calls DELETE /todo-lists/{id}. The backend is expected
// to cascade to the list's todos.
func (c *Client) DeleteTodoList(ctx context.Context, id string) error {
	if err := c.Delete(ctx, itemPath(pathTodoLists, id)); err != nil {
		return fmt.Errorf("deleting todo list %s: %w", id, err)
	}
	return nil
}

// FetchAgreements calls GET /agreements.
func (c *Client) FetchAgreements(ctx context.Context) ([]model.Agreement, error) {
	var agreements []model.Agreement
	if err := c.Get(ctx, pathAgreements, &agreements); err != nil {
		return nil, fmt.Errorf("fetching agreements: %w", err)
	}
	return agreements, nil
}

// FetchAgreementLists calls GET /agreement-lists.
func (c *Client) FetchAgreementLists(ctx context.Context) ([]model.AgreementList, error) {
	var lists []model.AgreementList
	if err := c.Get(ctx, pathAgreementLists, &lists); err != nil {
		return nil, fmt.Errorf("fetching agreement lists: %w", err)
	}
	return lists, nil
}

// CreateAgreement calls POST /agreements.
func (c *Client) CreateAgreement(ctx context.Context, a model.Agreement) (*model.Agreement, error) {
	var out model.Agreement
	if err := c.Post(ctx, pathAgreements, a, &out); err != nil {
		return nil, fmt.Errorf("creating agreement: %w", err)
	}
	return &out, nil
}

// UpdateAgreement calls PUT /agreements/{id}.
func (c *Client) UpdateAgreement(ctx context.Context, a model.Agreement) (*model.Agreement, error) {
	var out model.Agreement
	if err := c.Put(ctx, itemPath(pathAgreements, a.ID), a, &out); err != nil {
		return nil, fmt.Errorf("updating agreement %s: %w", a.ID, err)
	}
	return &out, nil
}

// statusPatch is the body of PATCH /agreements/{id}/status.
type statusPatch struct {
	Field  model.StatusField     `json:"field"`
	Status model.AgreementStatus `json:"status"`
}

// UpdateAgreementStatus calls PATCH /agreements/{id}/status.
func (c *Client) UpdateAgreementStatus(
	ctx context.Context,
	id string,
	field model.StatusField,
	status model.AgreementStatus,
) (*model.Agreement, error) {
	var out model.Agreement
	body := statusPatch{Field: field, Status: status}
	if err := c.Patch(ctx, itemPath(pathAgreements, id)+"/status", body, &out); err != nil {
		return nil, fmt.Errorf("updating %s of agreement %s: %w", field, id, err)
	}
	return &out, nil
}

// DeleteAgreement calls DELETE /agreements/{id}.
func (c *Client) DeleteAgreement(ctx context.Context, id string) error {
	if err := c.Delete(ctx, itemPath(pathAgreements, id)); err != nil {
		return fmt.Errorf("deleting agreement %s: %w", id, err)
	}
	return nil
}

// CreateAgreementList calls POST /agreement-lists.
func (c *Client) CreateAgreementList(
	ctx context.Context,
	list model.AgreementList,
) (*model.AgreementList, error) {
	var out model.AgreementList
	if err := c.Post(ctx, pathAgreementLists, list, &out); err != nil {
		return nil, fmt.Errorf("creating agreement list: %w", err)
	}
	return &out, nil
}

// DeleteAgreementList calls DELETE /agreement-lists/{id}.
func (c *Client) DeleteAgreementList(ctx context.Context, id string) error {
	if err := c.Delete(ctx, itemPath(pathAgreementLists, id)); err != nil {
		return fmt.Errorf("deleting agreement list %s: %w", id, err)
	}
	return nil
}
