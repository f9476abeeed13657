package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bizdash/internal/credential"
	"github.com/nhle/bizdash/internal/model"
)

const testToken = "test-token"

// fakeBackend is a minimal in-memory dashboard API.
type fakeBackend struct {
	mu         sync.Mutex
	hits       atomic.Int32
	todos      map[string]model.Todo
	agreements map[string]model.Agreement
	lastPatch  statusPatch
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		todos: map[string]model.Todo{
			"1": {ID: "1", ListID: "L1", Title: "call legal", Priority: model.PriorityHigh},
		},
		agreements: map[string]model.Agreement{
			"A1": {ID: "A1", Element: "NDA", Status: model.StatusInProgress, SJStatus: model.StatusNotStarted},
		},
	}

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.hits.Add(1)
			b.mu.Lock()
			defer b.mu.Unlock()
			if req.Header.Get("Authorization") != "Bearer "+testToken {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/todos", func(w http.ResponseWriter, req *http.Request) {
		out := make([]model.Todo, 0, len(b.todos))
		for _, t := range b.todos {
			out = append(out, t)
		}
		writeJSON(w, http.StatusOK, out)
	}).Methods(http.MethodGet)

	r.HandleFunc("/todos", func(w http.ResponseWriter, req *http.Request) {
		var in model.Todo
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.ID = "srv-" + in.ID
		b.todos[in.ID] = in
		writeJSON(w, http.StatusCreated, in)
	}).Methods(http.MethodPost)

	r.HandleFunc("/todos/{id}/toggle", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		t, ok := b.todos[id]
		if !ok {
			http.Error(w, "no such todo", http.StatusNotFound)
			return
		}
		t.Completed = !t.Completed
		b.todos[id] = t
		writeJSON(w, http.StatusOK, t)
	}).Methods(http.MethodPatch)

	r.HandleFunc("/todos/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		if _, ok := b.todos[id]; !ok {
			http.Error(w, "no such todo", http.StatusNotFound)
			return
		}
		delete(b.todos, id)
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	r.HandleFunc("/agreements/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		a, ok := b.agreements[id]
		if !ok {
			http.Error(w, "no such agreement", http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(req.Body).Decode(&b.lastPatch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a = a.WithStatus(b.lastPatch.Field, b.lastPatch.Status)
		b.agreements[id] = a
		writeJSON(w, http.StatusOK, a)
	}).Methods(http.MethodPatch)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) hasTodo(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.todos[id]
	return ok
}

func (b *fakeBackend) patch() statusPatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPatch
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchTodosSendsBearerToken(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static(testToken))

	todos, err := c.FetchTodos(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "call legal", todos[0].Title)
	assert.Equal(t, model.PriorityHigh, todos[0].Priority)
}

func TestMissingCredentialIsNotAttempted(t *testing.T) {
	b, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static(""))

	_, err := c.FetchTodos(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.ErrorIs(t, err, credential.ErrNoToken)
	assert.Equal(t, int32(0), b.hits.Load())

	_, err = NewClient(srv.URL, nil).FetchAgreements(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, int32(0), b.hits.Load())
}

func TestRejectedCredentialIsAuthError(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static("wrong"))

	_, err := c.FetchTodos(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestCreateAndToggleTodo(t *testing.T) {
	b, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static(testToken))
	ctx := context.Background()

	created, err := c.CreateTodo(ctx, model.Todo{ID: "x", Title: "x", ListID: "9"})
	require.NoError(t, err)
	assert.Equal(t, "srv-x", created.ID)
	assert.True(t, b.hasTodo("srv-x"))

	toggled, err := c.ToggleTodo(ctx, "srv-x")
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	require.NoError(t, c.DeleteTodo(ctx, "srv-x"))
	assert.False(t, b.hasTodo("srv-x"))
}

func TestNotFound(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static(testToken))

	_, err := c.ToggleTodo(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	err = c.DeleteTodo(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAgreementStatusSendsNamedField(t *testing.T) {
	b, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static(testToken))

	a, err := c.UpdateAgreementStatus(context.Background(),
		"A1", model.FieldSJStatus, model.StatusSJReview)
	require.NoError(t, err)
	assert.Equal(t, model.FieldSJStatus, b.patch().Field)
	assert.Equal(t, model.StatusSJReview, a.SJStatus)
	assert.Equal(t, model.StatusInProgress, a.Status)
}

func TestRateLimitNotRetriedByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "0")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, credential.Static(testToken))
	_, err := c.FetchTodos(context.Background())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRateLimitRetriedWhenEnabled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, []model.TodoList{{ID: "L1", Name: "Work"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, credential.Static(testToken), WithMaxRetries(2))
	lists, err := c.FetchTodoLists(context.Background())
	require.NoError(t, err)
	assert.Len(t, lists, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCircuitOpensAfterRepeatedServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, credential.Static(testToken))
	ctx := context.Background()
	for i := 0; i < breakerThreshold; i++ {
		_, err := c.FetchTodos(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := c.FetchTodos(ctx)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(breakerThreshold), hits.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := NewClient(srv.URL, credential.Static(testToken))

	for i := 0; i < breakerThreshold+2; i++ {
		_, err := c.ToggleTodo(context.Background(), "missing")
		assert.True(t, IsNotFound(err))
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Second, retryAfterDuration(resp, 0))
	assert.Equal(t, 4*time.Second, retryAfterDuration(resp, 2))
	assert.Equal(t, 30*time.Second, retryAfterDuration(resp, 10))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfterDuration(resp, 0))
}
