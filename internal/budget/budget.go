// Package budget holds user-defined spending limits and classifies
// per-category spend against them.
package budget

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"financy/internal/core"
)

var (
	ErrNonPositiveLimit = errors.New("budget limit must be greater than 0")
	ErrEmptyCategory    = errors.New("budget category is required")
)

// Limit is one active spending limit for a category.
type Limit struct {
	Category core.CategoryKey
	Display  string
	Limit    decimal.Decimal
}

// Registry keeps each owner's limits for the session. At most one limit
// is active per (owner, category key); setting a limit for an existing
// key replaces it. Limits live in process memory only.
type Registry struct {
	mu     sync.Mutex
	owners map[string]map[core.CategoryKey]Limit
}

func NewRegistry() *Registry {
	return &Registry{owners: make(map[string]map[core.CategoryKey]Limit)}
}

// Set stores a limit for the owner, keyed on the normalized category.
func (r *Registry) Set(ownerID, category string, limit decimal.Decimal) error {
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	key := core.NormalizeKey(category)
	if !limit.IsPositive() {
		return ErrNonPositiveLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	limits, ok := r.owners[ownerID]
	if !ok {
		limits = make(map[core.CategoryKey]Limit)
		r.owners[ownerID] = limits
	}
	limits[key] = Limit{Category: key, Display: core.DisplayForm(category), Limit: limit}
	return nil
}

// Remove drops the owner's limit for the category, if any.
func (r *Registry) Remove(ownerID, category string) {
	key := core.NormalizeKey(category)

	r.mu.Lock()
	defer r.mu.Unlock()
	if limits, ok := r.owners[ownerID]; ok {
		delete(limits, key)
	}
}

// List returns the owner's limits sorted by category key.
func (r *Registry) List(ownerID string) []Limit {
	r.mu.Lock()
	defer r.mu.Unlock()

	limits := r.owners[ownerID]
	out := make([]Limit, 0, len(limits))
	for _, l := range limits {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
