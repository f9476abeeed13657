package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "bizdash"

// ErrNoToken is returned when no bearer credential is stored.
var ErrNoToken = errors.New("no API token stored; run `bizdash login`")

// TokenSource supplies the bearer credential attached to remote calls.
type TokenSource interface {
	Token() (string, error)
}

// Static is a TokenSource backed by a fixed string. An empty Static
// behaves like a missing credential.
type Static string

// Token returns the static token or ErrNoToken when empty.
func (s Static) Token() (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Keyring stores credentials in the operating system keyring.
type Keyring struct {
	ring keyring.Keyring
	key  string
}

// OpenKeyring returns a Keyring whose Token method reads tokenKey.
func OpenKeyring(tokenKey string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/bizdash/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("bizdash-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyring(ring, tokenKey), nil
}

// NewKeyring wraps an already opened keyring.
func NewKeyring(ring keyring.Keyring, tokenKey string) *Keyring {
	return &Keyring{ring: ring, key: tokenKey}
}

// Token returns the stored bearer token, or ErrNoToken when absent.
func (k *Keyring) Token() (string, error) {
	token, err := k.Get(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) || (err == nil && token == "") {
		return "", ErrNoToken
	}
	return token, err
}

// SetToken stores the bearer token under the configured key.
func (k *Keyring) SetToken(token string) error {
	return k.Set(k.key, token)
}

// DeleteToken removes the bearer token. Missing tokens are not an error.
func (k *Keyring) DeleteToken() error {
	err := k.Delete(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Get retrieves a credential value by key from the keyring.
func (k *Keyring) Get(key string) (string, error) {
	item, err := k.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the keyring.
func (k *Keyring) Set(key string, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the keyring.
func (k *Keyring) Delete(key string) error {
	err := k.ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Chain returns the first credential any source yields. Sources that
// report ErrNoToken are skipped; other errors stop the search.
type Chain []TokenSource

// Token implements TokenSource.
func (c Chain) Token() (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		token, err := src.Token()
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
	}
	return "", ErrNoToken
}
