// Package auth resolves the owner identity for incoming requests.
// Entries are partitioned per owner, so every handler goes through a
// Provider before touching data.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoIdentity is returned when a request cannot be attributed to an
// owner.
var ErrNoIdentity = errors.New("no identity on request")

// Identity is the resolved request principal.
type Identity struct {
	OwnerID     string
	DisplayName string
	Email       string
}

// Provider extracts the identity from a request.
type Provider interface {
	Resolve(r *http.Request) (Identity, error)
}

// StaticProvider attributes every request to one configured owner.
// Suits single-user deployments where the instance is the boundary.
type StaticProvider struct {
	identity Identity
}

func NewStaticProvider(ownerID, displayName, email string) (*StaticProvider, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errors.New("owner id required")
	}
	return &StaticProvider{identity: Identity{
		OwnerID:     ownerID,
		DisplayName: displayName,
		Email:       email,
	}}, nil
}

func (p *StaticProvider) Resolve(*http.Request) (Identity, error) {
	return p.identity, nil
}

// HeaderProvider trusts a reverse proxy to set the owner header. The
// name header is optional.
type HeaderProvider struct {
	OwnerHeader string
	NameHeader  string
}

func (p *HeaderProvider) Resolve(r *http.Request) (Identity, error) {
	owner := strings.TrimSpace(r.Header.Get(p.OwnerHeader))
	if owner == "" {
		return Identity{}, ErrNoIdentity
	}
	return Identity{
		OwnerID:     owner,
		DisplayName: strings.TrimSpace(r.Header.Get(p.NameHeader)),
	}, nil
}
