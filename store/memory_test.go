package store

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStoreConditionalWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.SetStringNX(ctx, "k", "first")
	if err != nil || !ok {
		t.Fatalf("first SetStringNX: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetStringNX(ctx, "k", "second")
	if err != nil || ok {
		t.Fatalf("second SetStringNX should not write: ok=%v err=%v", ok, err)
	}
	v, _, _ := s.GetString(ctx, "k")
	if v != "first" {
		t.Fatalf("expected first, got %q", v)
	}

	ok, _ = s.HashSetNX(ctx, "h", "alice", "1")
	if !ok {
		t.Fatal("expected first HashSetNX to write")
	}
	ok, _ = s.HashSetNX(ctx, "h", "alice", "1")
	if ok {
		t.Fatal("expected duplicate HashSetNX to be rejected")
	}
	if n, _ := s.HashLen(ctx, "h"); n != 1 {
		t.Fatalf("expected 1 field, got %d", n)
	}
}

func TestMemoryStoreConcurrentVotesCountOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	written := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := s.HashSetNX(ctx, "votes:s1", "bob", "1")
			written <- ok
		}()
	}
	wg.Wait()
	close(written)

	wins := 0
	for ok := range written {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one writer, got %d", wins)
	}
}

func TestIncrementAndGetInt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if n, err := GetInt(ctx, s, "wins:alice"); err != nil || n != 0 {
		t.Fatalf("missing counter should read 0, got %d err=%v", n, err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Increment(ctx, "wins:alice", 1); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if n, _ := GetInt(ctx, s, "wins:alice"); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	type doc struct {
		Name string `json:"name"`
	}

	if ok, err := GetJSON(ctx, s, "missing", &doc{}); ok || err != nil {
		t.Fatalf("missing doc: ok=%v err=%v", ok, err)
	}
	if err := SetJSON(ctx, s, "d", doc{Name: "cat"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err := SetJSONNX(ctx, s, "d", doc{Name: "dog"})
	if err != nil || ok {
		t.Fatalf("SetJSONNX over existing key: ok=%v err=%v", ok, err)
	}
	var got doc
	if ok, err := GetJSON(ctx, s, "d", &got); !ok || err != nil || got.Name != "cat" {
		t.Fatalf("unexpected doc %+v ok=%v err=%v", got, ok, err)
	}
}

func TestKeysUsePrefix(t *testing.T) {
	k := NewKeys("")
	if got := k.UserSubmission("alice", "2026-01-02"); got != "ddc:user_sub:alice:2026-01-02" {
		t.Fatalf("unexpected key %s", got)
	}
	k = NewKeys("test:")
	if got := k.Winners("2026-01-02"); got != "test:winners:2026-01-02" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.SetString(ctx, "claim", "run-1")
	if err := s.Delete(ctx, "claim"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.GetString(ctx, "claim"); ok {
		t.Fatal("key should be gone")
	}
	ok, _ := s.SetStringNX(ctx, "claim", "run-2")
	if !ok {
		t.Fatal("a released claim can be taken again")
	}
}
