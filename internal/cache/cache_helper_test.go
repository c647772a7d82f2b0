package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestHelper(t *testing.T) (*Helper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewHelper(client, logger), mr
}

func TestHelper_SetGet(t *testing.T) {
	h, _ := newTestHelper(t)
	ctx := context.Background()

	h.Set(ctx, payload{ID: 7, Title: "Mock Test"}, time.Minute, "paper", 7)

	var got payload
	if !h.Get(ctx, &got, "paper", 7) {
		t.Fatal("expected cache hit")
	}
	if got.ID != 7 || got.Title != "Mock Test" {
		t.Errorf("got %+v", got)
	}
}

func TestHelper_MissAndExpiry(t *testing.T) {
	h, mr := newTestHelper(t)
	ctx := context.Background()

	var got payload
	if h.Get(ctx, &got, "paper", 404) {
		t.Fatal("expected miss for absent key")
	}

	h.Set(ctx, payload{ID: 1}, time.Minute, "paper", 1)
	mr.FastForward(2 * time.Minute)
	if h.Get(ctx, &got, "paper", 1) {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestHelper_Delete(t *testing.T) {
	h, _ := newTestHelper(t)
	ctx := context.Background()

	h.Set(ctx, payload{ID: 1}, time.Minute, "paper", 1)
	h.Delete(ctx, "paper", 1)

	var got payload
	if h.Get(ctx, &got, "paper", 1) {
		t.Fatal("expected miss after delete")
	}
}

func TestHelper_DeletePattern(t *testing.T) {
	h, _ := newTestHelper(t)
	ctx := context.Background()

	h.Set(ctx, payload{ID: 1}, time.Minute, "paper", 1)
	h.Set(ctx, payload{ID: 2}, time.Minute, "paper", 2)
	h.Set(ctx, payload{ID: 3}, time.Minute, "inventory")

	h.DeletePattern(ctx, "paper:*")

	var got payload
	if h.Get(ctx, &got, "paper", 1) || h.Get(ctx, &got, "paper", 2) {
		t.Error("pattern delete left paper entries behind")
	}
	if !h.Get(ctx, &got, "inventory") {
		t.Error("pattern delete removed an unrelated key")
	}
}

func TestHelper_DisabledWithoutClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	h := NewHelper(nil, logger)
	ctx := context.Background()

	// Every call must degrade to a no-op, never panic.
	h.Set(ctx, payload{ID: 1}, time.Minute, "paper", 1)
	h.Delete(ctx, "paper", 1)
	h.DeletePattern(ctx, "paper:*")

	var got payload
	if h.Get(ctx, &got, "paper", 1) {
		t.Fatal("nil-client helper reported a hit")
	}
	if h.Enabled() {
		t.Fatal("nil-client helper reports enabled")
	}
}

func TestHelper_CorruptEntryDropped(t *testing.T) {
	h, mr := newTestHelper(t)
	ctx := context.Background()

	mr.Set("exam-service:paper:9", "{not json")

	var got payload
	if h.Get(ctx, &got, "paper", 9) {
		t.Fatal("corrupt entry decoded")
	}
	if mr.Exists("exam-service:paper:9") {
		t.Error("corrupt entry not evicted")
	}
}
