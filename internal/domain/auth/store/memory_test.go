package store

import (
	"context"
	"testing"
	"time"

	"abonado-server-go/internal/domain/auth/model"
)

func TestMemoryStoreBasicLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{
		TTL:    time.Second,
		Memory: &MemoryConfig{GCInterval: 10 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	info := model.SessionInfo{
		SessionID: "session-basic",
		Username:  "admin",
		IP:        "127.0.0.1",
		Metadata:  map[string]any{"role": "tester"},
	}

	if err := store.Store(ctx, info); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	stored, err := store.Get(ctx, info.SessionID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.SessionID != info.SessionID || stored.Username != info.Username {
		t.Fatalf("unexpected session info: %+v", stored)
	}

	active, ok, err := store.Active(ctx, info.SessionID)
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected session to be active")
	}
	if active.SessionID != info.SessionID {
		t.Fatalf("unexpected active payload: %+v", active)
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != info.SessionID {
		t.Fatalf("expected list to include session: %v", ids)
	}

	if err := store.Remove(ctx, info.SessionID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := store.Get(ctx, info.SessionID); err == nil {
		t.Fatalf("expected get error after removal")
	}
}

func TestMemoryStoreExpiration(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{
		TTL:    50 * time.Millisecond,
		Memory: &MemoryConfig{GCInterval: 5 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	info := model.SessionInfo{
		SessionID: "session-expire",
		Username:  "admin",
	}
	if err := store.Store(ctx, info); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired returned error: %v", err)
	}

	if _, err := store.Get(ctx, info.SessionID); err == nil {
		t.Fatalf("expected get to fail after expiration")
	}

	if _, ok, err := store.Active(ctx, info.SessionID); ok {
		t.Fatalf("expected expired session to be inactive")
	} else if err != nil {
		t.Fatalf("unexpected active error: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats["active"].(int) != 0 {
		t.Fatalf("expected active count to be zero, got %v", stats["active"])
	}
}
