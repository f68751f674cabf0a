package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"financy/internal/core"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()

	ref, err := s.Append(context.Background(), core.Entry{
		OwnerID:     "alice",
		Kind:        core.Expense,
		Amount:      decimal.NewFromInt(12),
		Category:    "food",
		Date:        core.NewDate(2024, 1, 1),
		Description: "lunch",
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].Description != "lunch" {
		t.Fatalf("unexpected items: %v", items)
	}
}

func TestMemoryStoreRejectsInvalidEntry(t *testing.T) {
	s := New()

	_, err := s.Append(context.Background(), core.Entry{
		OwnerID: "alice",
		Kind:    core.Kind("transfer"),
		Amount:  decimal.NewFromInt(1),
		Date:    core.NewDate(2024, 1, 1),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Items()) != 0 {
		t.Fatal("invalid entry must not be stored")
	}
}
