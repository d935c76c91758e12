package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "pbsub:submission:job1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, "pbsub:submission:job1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Expected v1, got %s", got)
	}

	if err := s.Delete(ctx, "pbsub:submission:job1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "pbsub:submission:job1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_SetNXAndExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, err := s.SetNX(ctx, "lock", []byte("a"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected first SetNX to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = s.SetNX(ctx, "lock", []byte("b"), time.Minute)
	if err != nil || ok {
		t.Fatalf("Expected second SetNX to fail, got ok=%v err=%v", ok, err)
	}

	now = now.Add(2 * time.Minute)

	ok, err = s.SetNX(ctx, "lock", []byte("c"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected SetNX after expiry to succeed, got ok=%v err=%v", ok, err)
	}
	got, _ := s.Get(ctx, "lock")
	if string(got) != "c" {
		t.Errorf("Expected c, got %s", got)
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v := []byte("abc")
	s.Set(ctx, "k", v, 0)
	v[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Expected stored value to be isolated from caller, got %s", got)
	}
}

func TestMemoryStore_DeleteIfEquals(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Set(ctx, "pbsub:lock:job1", []byte("owner-b"), time.Minute)

	ok, err := s.DeleteIfEquals(ctx, "pbsub:lock:job1", []byte("owner-a"))
	if err != nil || ok {
		t.Fatalf("Expected foreign owner not to delete, got ok=%v err=%v", ok, err)
	}
	if got, _ := s.Get(ctx, "pbsub:lock:job1"); string(got) != "owner-b" {
		t.Errorf("Expected lock to stay with owner-b, got %q", got)
	}

	ok, err = s.DeleteIfEquals(ctx, "pbsub:lock:job1", []byte("owner-b"))
	if err != nil || !ok {
		t.Fatalf("Expected owner to delete, got ok=%v err=%v", ok, err)
	}
	if _, err := s.Get(ctx, "pbsub:lock:job1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if ok, _ := s.DeleteIfEquals(ctx, "missing", []byte("x")); ok {
		t.Error("Expected no delete for a missing key")
	}
}
