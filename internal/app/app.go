// Package app wires one dashboard session together: configuration, logger,
// credentials, remote client, durable cache, stores and the refresher.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/bizdash/internal/cache"
	"github.com/nhle/bizdash/internal/credential"
	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/remote"
	"github.com/nhle/bizdash/internal/store"
	appsync "github.com/nhle/bizdash/internal/sync"
)

// TokenEnv is the environment variable that overrides the stored token.
const TokenEnv = "BIZDASH_TOKEN"

// App is a running session. Build it with New and release it with Close.
type App struct {
	Config     *model.AppConfig
	Log        zerolog.Logger
	Todos      *store.TodoStore
	Agreements *store.AgreementStore
	Refresher  *appsync.Refresher

	cache  *cache.Cache
	online bool
}

// Options carries the dependencies New cannot derive from the config.
type Options struct {
	Log zerolog.Logger

	// Tokens overrides the credential chain built from the environment
	// and the keyring.
	Tokens credential.TokenSource
}

// New opens the cache, builds the remote client when a base URL is
// configured and warms both stores from the cache. It does not contact
// the backend; call Sync for that.
func New(ctx context.Context, cfg *model.AppConfig, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: opts.Log}

	if cfg.Cache.Path != "" {
		if cfg.Cache.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o700); err != nil {
				return nil, fmt.Errorf("creating cache directory: %w", err)
			}
		}
		c, err := cache.Open(ctx, cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		a.cache = c
	}

	var client *remote.Client
	if cfg.Remote.BaseURL != "" {
		tokens := opts.Tokens
		if tokens == nil {
			tokens = a.tokenChain(cfg.Credential.Key)
		}
		client = remote.NewClient(cfg.Remote.BaseURL, tokens,
			remote.WithTimeout(time.Duration(cfg.Remote.TimeoutSec)*time.Second),
			remote.WithMaxRetries(cfg.Remote.MaxRetries),
			remote.WithLogger(a.Log.With().Str("component", "remote").Logger()),
		)
		a.online = true
	}

	storeOpts := []store.Option{store.WithLogger(a.Log.With().Str("component", "store").Logger())}
	a.Todos = newTodoStore(client, a.cache, storeOpts)
	a.Agreements = newAgreementStore(client, a.cache, storeOpts)

	if err := a.Todos.LoadCached(ctx); err != nil {
		a.Log.Warn().Err(err).Msg("warming todos from cache")
	}
	if err := a.Agreements.LoadCached(ctx); err != nil {
		a.Log.Warn().Err(err).Msg("warming agreements from cache")
	}

	a.Refresher = appsync.New(
		appsync.WithInterval(time.Duration(cfg.Sync.IntervalSec)*time.Second),
		appsync.WithFetchTimeout(time.Duration(cfg.Sync.FetchTimeoutSec)*time.Second),
		appsync.WithLogger(a.Log.With().Str("component", "sync").Logger()),
	)
	a.Refresher.Register("todos", a.Todos)
	a.Refresher.Register("agreements", a.Agreements)

	return a, nil
}

// newTodoStore avoids handing the store a typed nil client.
func newTodoStore(c *remote.Client, cc *cache.Cache, opts []store.Option) *store.TodoStore {
	var r remote.TodoRemote
	if c != nil {
		r = c
	}
	var tc store.TodoCache
	if cc != nil {
		tc = cc
	}
	return store.NewTodoStore(r, tc, opts...)
}

func newAgreementStore(c *remote.Client, cc *cache.Cache, opts []store.Option) *store.AgreementStore {
	var r remote.AgreementRemote
	if c != nil {
		r = c
	}
	var ac store.AgreementCache
	if cc != nil {
		ac = cc
	}
	return store.NewAgreementStore(r, ac, opts...)
}

// tokenChain prefers the environment over the keyring. A keyring that
// cannot be opened is skipped.
func (a *App) tokenChain(key string) credential.TokenSource {
	chain := credential.Chain{credential.Static(os.Getenv(TokenEnv))}
	ring, err := credential.OpenKeyring(key)
	if err != nil {
		a.Log.Debug().Err(err).Msg("keyring unavailable")
		return chain
	}
	return append(chain, ring)
}

// Online reports whether a remote backend is configured.
func (a *App) Online() bool { return a.online }

// Sync reloads both stores from the backend. Both loads run even when the
// first fails; the errors are joined.
func (a *App) Sync(ctx context.Context) error {
	if !a.online {
		return nil
	}
	return errors.Join(a.Todos.Load(ctx), a.Agreements.Load(ctx))
}

// Close stops the refresher, drops in-flight results and closes the cache.
func (a *App) Close() error {
	a.Refresher.Stop()
	a.Todos.Invalidate()
	a.Agreements.Invalidate()
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
