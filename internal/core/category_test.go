package core

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in  string
		out CategoryKey
	}{
		{"Food", "food"},
		{" food ", "food"},
		{"FOOD", "food"},
		{"Groceries And Snacks", "groceries and snacks"},
		{"", "uncategorized"},
		{"   ", "uncategorized"},
	}
	for _, tc := range cases {
		if got := NormalizeKey(tc.in); got != tc.out {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestNormalizeKeyCaseAndSpaceInsensitive(t *testing.T) {
	// Any two strings differing only in case or surrounding whitespace
	// must share a key.
	variants := []string{"Food", "food", "FOOD", " Food", "food  ", "\tfOOd\n"}
	want := NormalizeKey(variants[0])
	for _, v := range variants[1:] {
		if got := NormalizeKey(v); got != want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestDisplayForm(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"food", "Food"},
		{"FOOD", "Food"},
		{"eating out", "Eating Out"},
		{"  eating   OUT  ", "Eating Out"},
		{"", "Uncategorized"},
		{"   ", "Uncategorized"},
	}
	for _, tc := range cases {
		if got := DisplayForm(tc.in); got != tc.out {
			t.Fatalf("DisplayForm(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
