package catalog

import (
	"errors"
	"testing"
)

func TestFormatAndParseID(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "comic-001"},
		{42, "comic-042"},
		{999, "comic-999"},
		{1000, "comic-1000"},
	}
	for _, tt := range tests {
		if got := FormatID(tt.n); got != tt.want {
			t.Fatalf("FormatID(%d) = %q, want %q", tt.n, got, tt.want)
		}
		n, err := ParseID(tt.want)
		if err != nil || n != tt.n {
			t.Fatalf("ParseID(%q) = %d, %v", tt.want, n, err)
		}
	}

	for _, bad := range []string{"", "comic-", "comic", "comic-1a", "strip-001", "comic--1", "comic-+1"} {
		if _, err := ParseID(bad); err == nil {
			t.Fatalf("ParseID(%q) should fail", bad)
		}
	}
}

func TestNextNumberDoesNotNeedStore(t *testing.T) {
	var empty *Catalog
	if got, _ := empty.NextNumber(); got != "001" {
		t.Fatalf("nil catalog: got %q", got)
	}
	cat := &Catalog{Comics: []Entry{{ID: "comic-009"}, {ID: "comic-002"}}}
	if got, err := cat.NextNumber(); err != nil || got != "010" {
		t.Fatalf("got %q, %v", got, err)
	}
	bad := &Catalog{Comics: []Entry{{ID: "strip-1"}}}
	if _, err := bad.NextNumber(); !errors.Is(err, ErrCorruptCatalog) {
		t.Fatalf("expected ErrCorruptCatalog, got %v", err)
	}
}
