package cache

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newClockedStore() (*memoryStore, *time.Time) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryStore{
		entries: make(map[string]entry),
		now:     func() time.Time { return current },
	}
	return store, &current
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newClockedStore()

	if err := store.Set("k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := store.Get("k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestStoreMissingKey(t *testing.T) {
	store, _ := newClockedStore()

	if _, err := store.Get("absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreExpiry(t *testing.T) {
	store, clock := newClockedStore()

	if err := store.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	*clock = clock.Add(59 * time.Second)
	if _, err := store.Get("k"); err != nil {
		t.Fatalf("entry expired too early: %v", err)
	}

	*clock = clock.Add(2 * time.Second)
	if _, err := store.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestStoreSetResetsTTL(t *testing.T) {
	store, clock := newClockedStore()

	if err := store.Set("k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	*clock = clock.Add(50 * time.Second)
	if err := store.Set("k", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("second set failed: %v", err)
	}

	*clock = clock.Add(50 * time.Second)
	got, err := store.Get("k")
	if err != nil {
		t.Fatalf("ttl not reset: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := newClockedStore()

	if err := store.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	store.Delete("k")
	if _, err := store.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deletion, got %v", err)
	}
}

func TestStoreRejectsBadArguments(t *testing.T) {
	store, _ := newClockedStore()

	if err := store.Set("", []byte("v"), time.Minute); err == nil {
		t.Fatal("empty key accepted")
	}
	if err := store.Set("k", []byte("v"), 0); err == nil {
		t.Fatal("zero ttl accepted")
	}
}

func TestStoreCopiesValues(t *testing.T) {
	store, _ := newClockedStore()

	original := []byte("abc")
	if err := store.Set("k", original, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	original[0] = 'x'

	got, err := store.Get("k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}

	got[0] = 'y'
	again, err := store.Get("k")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if string(again) != "abc" {
		t.Fatalf("returned value aliased store buffer: %q", again)
	}
}
