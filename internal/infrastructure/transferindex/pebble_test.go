package transferindex

import (
	"context"
	"testing"
)

func TestPebbleIndexRoundTrip(t *testing.T) {
	index, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	defer index.Close()

	ctx := context.Background()
	if err := index.Put(ctx, "remote-42", "local-1"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := index.Get(ctx, "remote-42")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "local-1" {
		t.Fatalf("expected local-1, got %q", got)
	}
}

func TestPebbleIndexMissingEntry(t *testing.T) {
	index, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	defer index.Close()

	got, err := index.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("a missing entry is not an error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected an empty id, got %q", got)
	}
}

func TestPebbleIndexOverwrite(t *testing.T) {
	index, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	defer index.Close()

	ctx := context.Background()
	if err := index.Put(ctx, "remote-42", "local-1"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := index.Put(ctx, "remote-42", "local-2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := index.Get(ctx, "remote-42")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "local-2" {
		t.Fatalf("expected the latest mapping, got %q", got)
	}
}
