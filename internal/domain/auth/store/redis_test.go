package store

import (
	"context"
	"testing"
	"time"

	"abonado-server-go/internal/domain/auth/model"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedis(Config{
		TTL: time.Second,
		Redis: &RedisConfig{
			Addr: mr.Addr(),
		},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	info := model.SessionInfo{
		SessionID: "redis-session",
		Username:  "admin",
	}
	if err := store.Store(ctx, info); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	got, err := store.Get(ctx, info.SessionID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.SessionID != info.SessionID {
		t.Fatalf("unexpected session: %+v", got)
	}

	_, ok, err := store.Active(ctx, info.SessionID)
	if err != nil {
		t.Fatalf("Active error: %v", err)
	}
	if !ok {
		t.Fatalf("expected active session")
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0] != info.SessionID {
		t.Fatalf("unexpected list: %v", list)
	}

	if err := store.Remove(ctx, info.SessionID); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := store.Get(ctx, info.SessionID); err == nil {
		t.Fatalf("expected missing session after removal")
	}
}

func TestRedisStoreMissingIsInactive(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedis(Config{
		TTL:   time.Second,
		Redis: &RedisConfig{Addr: mr.Addr()},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}

	_, ok, err := store.Active(context.Background(), "no-such-session")
	if err != nil {
		t.Fatalf("Active error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing session to be inactive")
	}
}
