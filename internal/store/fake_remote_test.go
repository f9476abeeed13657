package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/remote"
)

// fakeRemote is an in-process stand-in for the REST backend. Every call
// fails with err when set, and calls named in failOn fail with their own
// error. hook, when set, runs before a call returns and may block to
// simulate a slow response.
type fakeRemote struct {
	mu             sync.Mutex
	err            error
	todos          []model.Todo
	lists          []model.TodoList
	agreements     []model.Agreement
	agreementLists []model.AgreementList
	calls          []string
	failOn         map[string]error
	hook           func(op string, arg interface{})
}

var _ remote.Remote = (*fakeRemote)(nil)

func (f *fakeRemote) enter(op string, arg interface{}) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	hook, err := f.hook, f.err
	if opErr, ok := f.failOn[op]; ok {
		err = opErr
	}
	f.mu.Unlock()

	if hook != nil {
		hook(op, arg)
	}
	return err
}

func (f *fakeRemote) failOp(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == nil {
		f.failOn = make(map[string]error)
	}
	f.failOn[op] = err
}

func (f *fakeRemote) setTodos(todos ...model.Todo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.todos = todos
}

func (f *fakeRemote) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) FetchTodos(ctx context.Context) ([]model.Todo, error) {
	if err := f.enter("FetchTodos", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Todo(nil), f.todos...), nil
}

func (f *fakeRemote) FetchTodoLists(ctx context.Context) ([]model.TodoList, error) {
	if err := f.enter("FetchTodoLists", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TodoList(nil), f.lists...), nil
}

func (f *fakeRemote) CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error) {
	if err := f.enter("CreateTodo", todo); err != nil {
		return nil, err
	}
	todo.ID = "srv-" + todo.ID
	return &todo, nil
}

func (f *fakeRemote) UpdateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error) {
	if err := f.enter("UpdateTodo", todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (f *fakeRemote) ToggleTodo(ctx context.Context, id string) (*model.Todo, error) {
	if err := f.enter("ToggleTodo", id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeRemote) DeleteTodo(ctx context.Context, id string) error {
	return f.enter("DeleteTodo", id)
}

func (f *fakeRemote) CreateTodoList(ctx context.Context, list model.TodoList) (*model.TodoList, error) {
	if err := f.enter("CreateTodoList", list); err != nil {
		return nil, err
	}
	list.ID = "srv-" + list.ID
	return &list, nil
}

func (f *fakeRemote) UpdateTodoList(ctx context.Context, list model.TodoList) (*model.TodoList, error) {
	if err := f.enter("UpdateTodoList", list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (f *fakeRemote) DeleteTodoList(ctx context.Context, id string) error {
	return f.enter("DeleteTodoList", id)
}

func (f *fakeRemote) FetchAgreements(ctx context.Context) ([]model.Agreement, error) {
	if err := f.enter("FetchAgreements", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Agreement(nil), f.agreements...), nil
}

func (f *fakeRemote) FetchAgreementLists(ctx context.Context) ([]model.AgreementList, error) {
	if err := f.enter("FetchAgreementLists", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AgreementList(nil), f.agreementLists...), nil
}

func (f *fakeRemote) CreateAgreement(ctx context.Context, a model.Agreement) (*model.Agreement, error) {
	if err := f.enter("CreateAgreement", a); err != nil {
		return nil, err
	}
	a.ID = "srv-" + a.ID
	return &a, nil
}

func (f *fakeRemote) UpdateAgreement(ctx context.Context, a model.Agreement) (*model.Agreement, error) {
	if err := f.enter("UpdateAgreement", a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (f *fakeRemote) UpdateAgreementStatus(
	ctx context.Context,
	id string,
	field model.StatusField,
	status model.AgreementStatus,
) (*model.Agreement, error) {
	if err := f.enter("UpdateAgreementStatus", status); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeRemote) DeleteAgreement(ctx context.Context, id string) error {
	return f.enter("DeleteAgreement", id)
}

func (f *fakeRemote) CreateAgreementList(
	ctx context.Context,
	list model.AgreementList,
) (*model.AgreementList, error) {
	if err := f.enter("CreateAgreementList", list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (f *fakeRemote) DeleteAgreementList(ctx context.Context, id string) error {
	return f.enter("DeleteAgreementList", id)
}

// sequentialIDs returns an id generator yielding prefix1, prefix2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
