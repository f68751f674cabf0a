package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderResolvesConfiguredOwner(t *testing.T) {
	p, err := NewStaticProvider("alice", "Alice", "alice@example.com")
	require.NoError(t, err)

	id, err := p.Resolve(httptest.NewRequest("GET", "/api/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, "alice", id.OwnerID)
	assert.Equal(t, "Alice", id.DisplayName)
	assert.Equal(t, "alice@example.com", id.Email)
}

func TestStaticProviderRequiresOwner(t *testing.T) {
	_, err := NewStaticProvider("  ", "", "")
	assert.Error(t, err)
}

func TestHeaderProvider(t *testing.T) {
	p := &HeaderProvider{OwnerHeader: "X-Owner-Id", NameHeader: "X-Owner-Name"}

	r := httptest.NewRequest("GET", "/api/dashboard", nil)
	r.Header.Set("X-Owner-Id", "bob")
	r.Header.Set("X-Owner-Name", "Bob")

	id, err := p.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "bob", id.OwnerID)
	assert.Equal(t, "Bob", id.DisplayName)
}

func TestHeaderProviderMissingHeader(t *testing.T) {
	p := &HeaderProvider{OwnerHeader: "X-Owner-Id"}

	_, err := p.Resolve(httptest.NewRequest("GET", "/api/dashboard", nil))
	assert.ErrorIs(t, err, ErrNoIdentity)
}
