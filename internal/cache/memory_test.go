package cache

import (
	"context"
	"testing"
	"time"

	"github.com/myta-ai/myta/internal/agent/core"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(30 * time.Minute)
	ctx := context.Background()
	userCtx := channelCtx(5000)
	result := core.ChatTurnResult{RequestID: "r1", Response: "all good", Intent: core.QueryGeneral}

	if _, ok := m.Get(ctx, "how is my channel?", userCtx, core.QueryGeneral); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	m.Set(ctx, "how is my channel?", userCtx, result, core.QueryGeneral)
	got, ok := m.Get(ctx, "how is my channel?", userCtx, core.QueryGeneral)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Response != "all good" {
		t.Fatalf("got %q", got.Response)
	}
}

func TestMemoryExpiresLazily(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewMemoryWithClock(30*time.Minute, clock)
	ctx := context.Background()
	userCtx := channelCtx(5000)

	m.Set(ctx, "q", userCtx, core.ChatTurnResult{Response: "x"}, core.QueryGeneral)
	now = now.Add(29 * time.Minute)
	if _, ok := m.Get(ctx, "q", userCtx, core.QueryGeneral); !ok {
		t.Fatal("entry expired early")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := m.Get(ctx, "q", userCtx, core.QueryGeneral); ok {
		t.Fatal("entry should be expired")
	}
	if m.Len() != 0 {
		t.Fatalf("lazy eviction left %d entries", m.Len())
	}
}

func TestMemoryClearExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewMemoryWithClock(30*time.Minute, clock)
	ctx := context.Background()

	m.Set(ctx, "old", channelCtx(100), core.ChatTurnResult{}, core.QueryGeneral)
	now = now.Add(20 * time.Minute)
	m.Set(ctx, "fresh", channelCtx(100), core.ChatTurnResult{}, core.QueryGeneral)
	now = now.Add(15 * time.Minute)

	if removed := m.ClearExpired(ctx); removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	if m.Len() != 1 {
		t.Fatalf("%d entries left, want 1", m.Len())
	}
}
