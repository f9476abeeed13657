package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringTokenRoundTrip(t *testing.T) {
	k := NewKeyring(keyring.NewArrayKeyring(nil), "api-token")

	_, err := k.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, k.SetToken("secret"))
	token, err := k.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	require.NoError(t, k.DeleteToken())
	_, err = k.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	// Deleting twice is fine.
	assert.NoError(t, k.DeleteToken())
}

func TestStatic(t *testing.T) {
	_, err := Static("").Token()
	assert.ErrorIs(t, err, ErrNoToken)

	token, err := Static("abc").Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

type failingSource struct{ err error }

func (f failingSource) Token() (string, error) { return "", f.err }

func TestChain(t *testing.T) {
	ring := NewKeyring(keyring.NewArrayKeyring([]keyring.Item{
		{Key: "api-token", Data: []byte("from-ring")},
	}), "api-token")

	token, err := Chain{Static(""), nil, ring}.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-ring", token)

	token, err = Chain{Static("env"), ring}.Token()
	require.NoError(t, err)
	assert.Equal(t, "env", token)

	_, err = Chain{Static("")}.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	boom := errors.New("keyring locked")
	_, err = Chain{failingSource{boom}, Static("late")}.Token()
	assert.ErrorIs(t, err, boom)
}
