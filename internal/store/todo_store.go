package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nhle/bizdash/internal/filter"
	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/remote"
)

// TodoStore is the session's authoritative collection of todos and todo
// lists. Mutations apply locally first; when a remote is configured the
// change is sent to it and rolled back if the call fails, so a failed
// operation leaves the state as it was.
type TodoStore struct {
	settings

	remote remote.TodoRemote
	cache  TodoCache

	mu      sync.Mutex
	todos   collection[model.Todo]
	lists   collection[model.TodoList]
	guard   guard
	lastErr string
}

// NewTodoStore creates an empty store. Either dependency may be nil:
// without a remote the store is local only, without a cache nothing is
// persisted.
func NewTodoStore(r remote.TodoRemote, c TodoCache, opts ...Option) *TodoStore {
	s := &TodoStore{
		settings: defaultSettings(),
		remote:   r,
		cache:    c,
		todos:    newCollection(func(t model.Todo) string { return t.ID }),
		lists:    newCollection(func(l model.TodoList) string { return l.ID }),
		guard:    newGuard(),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

// Load fetches todos and lists from the remote and replaces both
// collections on success. On failure the previous state is kept and the
// error is recorded for LastError. There is no retry.
func (s *TodoStore) Load(ctx context.Context) error {
	if s.remote == nil {
		return ErrNoRemote
	}

	s.mu.Lock()
	gen := s.guard.gen
	s.mu.Unlock()

	todos, err := s.remote.FetchTodos(ctx)
	var lists []model.TodoList
	if err == nil {
		lists, err = s.remote.FetchTodoLists(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.guard.gen {
		return ErrStale
	}
	if err != nil {
		s.lastErr = err.Error()
		s.log.Error().Err(err).Msg("loading todos")
		return fmt.Errorf("loading todos: %w", err)
	}

	s.todos.replace(todos)
	s.lists.replace(lists)
	s.guard.reload()
	s.lastErr = ""
	s.log.Debug().Int("todos", len(todos)).Int("lists", len(lists)).Msg("todos loaded")
	s.persist(ctx)
	return nil
}

// LoadCached replaces the collections with the contents of the cache.
func (s *TodoStore) LoadCached(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	todos, err := s.cache.Todos(ctx, nil)
	if err != nil {
		return fmt.Errorf("reading cached todos: %w", err)
	}
	lists, err := s.cache.TodoLists(ctx)
	if err != nil {
		return fmt.Errorf("reading cached todo lists: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos.replace(todos)
	s.lists.replace(lists)
	s.guard.reload()
	return nil
}

// LastError returns the message of the most recent failed Load, or ""
// once a later Load succeeded.
func (s *TodoStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Invalidate discards the results of every remote call still in flight.
// Local state is kept.
func (s *TodoStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard.invalidate()
}

// Pending reports how many entities have a remote write in flight.
func (s *TodoStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guard.pending()
}

// Add stores a new todo under a fresh unique id and returns it. The list
// it names is not required to exist. With a remote, the server's copy
// (and id) replaces the local one.
func (s *TodoStore) Add(ctx context.Context, todo model.Todo) (model.Todo, error) {
	if strings.TrimSpace(todo.Title) == "" {
		return model.Todo{}, fmt.Errorf("todo title must not be empty")
	}

	s.mu.Lock()
	todo.ID = s.newID()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = s.now()
	}
	if todo.Priority == "" {
		todo.Priority = model.PriorityNone
	}
	s.todos.add(todo)
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return todo, nil
	}
	tk := s.guard.begin(todoKey(todo.ID))
	s.mu.Unlock()

	saved, err := s.remote.CreateTodo(ctx, todo)

	s.mu.Lock()
	defer s.mu.Unlock()
	result := todo
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.todos.remove(todo.ID) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.todos.set(todo.ID, result)
		},
	)
	if err != nil {
		return model.Todo{}, s.failed("adding todo", err)
	}
	s.persist(ctx)
	return result, nil
}

// Update replaces the todo with the same id.
func (s *TodoStore) Update(ctx context.Context, todo model.Todo) (model.Todo, error) {
	s.mu.Lock()
	prev, ok := s.todos.get(todo.ID)
	if !ok {
		s.mu.Unlock()
		return model.Todo{}, notFound("todo", todo.ID)
	}
	s.todos.set(todo.ID, todo)
	return s.commitTodo(ctx, "updating todo", todo, prev, func() (*model.Todo, error) {
		return s.remote.UpdateTodo(ctx, todo)
	})
}

// Toggle flips the completed flag of a todo and returns the result.
func (s *TodoStore) Toggle(ctx context.Context, id string) (model.Todo, error) {
	s.mu.Lock()
	prev, ok := s.todos.get(id)
	if !ok {
		s.mu.Unlock()
		return model.Todo{}, notFound("todo", id)
	}
	next := prev
	next.Completed = !prev.Completed
	s.todos.set(id, next)
	return s.commitTodo(ctx, "toggling todo", next, prev, func() (*model.Todo, error) {
		return s.remote.ToggleTodo(ctx, id)
	})
}

// commitTodo finishes a single-todo edit. It is entered with s.mu held
// and the optimistic value already in place.
func (s *TodoStore) commitTodo(
	ctx context.Context,
	op string,
	next, prev model.Todo,
	call func() (*model.Todo, error),
) (model.Todo, error) {
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return next, nil
	}
	tk := s.guard.begin(todoKey(next.ID))
	s.mu.Unlock()

	saved, err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	result := next
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.todos.set(prev.ID, prev) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.todos.set(prev.ID, result)
		},
	)
	if err != nil {
		return model.Todo{}, s.failed(op, err)
	}
	s.persist(ctx)
	return result, nil
}

// Delete removes a todo and persists the remaining set.
func (s *TodoStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	removed, pos, ok := s.todos.remove(id)
	if !ok {
		s.mu.Unlock()
		return notFound("todo", id)
	}
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return nil
	}
	tk := s.guard.begin(todoKey(id))
	s.mu.Unlock()

	err := s.remote.DeleteTodo(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.todos.putBack(pos, removed) },
		nil,
	)
	if err != nil {
		return s.failed("deleting todo", err)
	}
	s.persist(ctx)
	return nil
}

// AddList stores a new todo list under a fresh unique id.
func (s *TodoStore) AddList(ctx context.Context, list model.TodoList) (model.TodoList, error) {
	if strings.TrimSpace(list.Name) == "" {
		return model.TodoList{}, fmt.Errorf("list name must not be empty")
	}

	s.mu.Lock()
	list.ID = s.newID()
	s.lists.add(list)
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return list, nil
	}
	tk := s.guard.begin(listKey(list.ID))
	s.mu.Unlock()

	saved, err := s.remote.CreateTodoList(ctx, list)

	s.mu.Lock()
	result := list
	var relinked []model.Todo
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.lists.remove(list.ID) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.lists.set(list.ID, result)
			relinked = s.relinkTodos(list.ID, result.ID)
		},
	)
	if err != nil {
		s.mu.Unlock()
		return model.TodoList{}, s.failed("adding list", err)
	}
	s.persist(ctx)
	s.mu.Unlock()

	for _, todo := range relinked {
		if _, err := s.Update(ctx, todo); err != nil {
			s.log.Warn().Err(err).Str("todo", todo.ID).Str("list", result.ID).Msg("relinked todo not saved")
		}
	}
	return result, nil
}

// relinkTodos moves todos that were filed under a provisional list id and
// returns the moved copies. Those were sent to the server with the old id.
func (s *TodoStore) relinkTodos(from, to string) []model.Todo {
	if from == to {
		return nil
	}
	var moved []model.Todo
	for i := range s.todos.items {
		if s.todos.items[i].ListID == from {
			s.todos.items[i].ListID = to
			moved = append(moved, s.todos.items[i])
		}
	}
	return moved
}

// UpdateList replaces the list with the same id.
func (s *TodoStore) UpdateList(ctx context.Context, list model.TodoList) (model.TodoList, error) {
	s.mu.Lock()
	prev, ok := s.lists.get(list.ID)
	if !ok {
		s.mu.Unlock()
		return model.TodoList{}, notFound("list", list.ID)
	}
	s.lists.set(list.ID, list)
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return list, nil
	}
	tk := s.guard.begin(listKey(list.ID))
	s.mu.Unlock()

	saved, err := s.remote.UpdateTodoList(ctx, list)

	s.mu.Lock()
	defer s.mu.Unlock()
	result := list
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.lists.set(prev.ID, prev) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.lists.set(prev.ID, result)
		},
	)
	if err != nil {
		return model.TodoList{}, s.failed("updating list", err)
	}
	s.persist(ctx)
	return result, nil
}

// DeleteList removes a list together with every todo filed under it.
// Todos of other lists are untouched. It returns the number of todos
// removed.
func (s *TodoStore) DeleteList(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	list, pos, ok := s.lists.remove(id)
	if !ok {
		s.mu.Unlock()
		return 0, notFound("list", id)
	}
	cascaded := s.todos.removeWhere(func(t model.Todo) bool { return t.ListID == id })
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return len(cascaded), nil
	}
	tk := s.guard.begin(listKey(id))
	s.mu.Unlock()

	err := s.remote.DeleteTodoList(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.guard.settle(tk, remoteErr(err),
		func() {
			s.lists.putBack(pos, list)
			s.todos.restore(cascaded)
		},
		nil,
	)
	if err != nil {
		return 0, s.failed("deleting list", err)
	}
	s.log.Debug().Str("list", id).Int("todos", len(cascaded)).Msg("list deleted")
	s.persist(ctx)
	return len(cascaded), nil
}

// PruneOrphans removes todos whose list no longer exists, for example
// because the list was deleted in another session or a relinked todo
// could not be saved. Only local state and the cache are changed. It
// returns the number of todos removed.
func (s *TodoStore) PruneOrphans(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, s.lists.len())
	for _, l := range s.lists.items {
		known[l.ID] = true
	}
	removed := s.todos.removeWhere(func(t model.Todo) bool { return !known[t.ListID] })
	if len(removed) > 0 {
		s.persist(ctx)
	}
	return len(removed)
}

// Todos returns a copy of every todo in insertion order.
func (s *TodoStore) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todos.snapshot()
}

// Lists returns a copy of every todo list.
func (s *TodoStore) Lists() []model.TodoList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.snapshot()
}

// Get returns the todo with the given id.
func (s *TodoStore) Get(id string) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos.get(id)
	if !ok {
		return model.Todo{}, notFound("todo", id)
	}
	return t, nil
}

// Count returns the number of todos in bucket b right now.
func (s *TodoStore) Count(b filter.Bucket) int {
	return filter.CountFor(s.Todos(), b, s.now())
}

// Counts returns the size of every bucket.
func (s *TodoStore) Counts() map[filter.Bucket]int {
	return filter.CountAll(s.Todos(), s.now())
}

// OpenByList returns the number of open todos per list id.
func (s *TodoStore) OpenByList() map[string]int {
	return filter.ByList(s.Todos())
}

// View returns bucket b, optionally restricted to listID, in display order.
func (s *TodoStore) View(b filter.Bucket, listID *string) []model.Todo {
	return filter.FilterAndSort(s.Todos(), b, listID, s.now())
}

// persist mirrors the current state into the cache. Cache failures are
// logged and do not fail the operation. Callers hold s.mu.
func (s *TodoStore) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ReplaceTodos(ctx, s.todos.snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("caching todos")
	}
	if err := s.cache.ReplaceTodoLists(ctx, s.lists.snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("caching todo lists")
	}
}

func (s *TodoStore) failed(op string, err error) error {
	if errors.Is(err, ErrStale) {
		s.log.Debug().Str("op", op).Msg("stale result discarded")
		return err
	}
	s.log.Warn().Err(err).Str("op", op).Msg("remote call failed")
	return fmt.Errorf("%s: %w", op, err)
}

func todoKey(id string) string { return "todo:" + id }
func listKey(id string) string { return "list:" + id }
