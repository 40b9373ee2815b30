package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cppla/dailydraw/store"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(day string) *testClock {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		panic(err)
	}
	return &testClock{now: t.Add(time.Minute)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAnnouncer struct {
	mu          sync.Mutex
	posts       map[string]string // ref -> title
	comments    map[string][]string
	failCreate  int
	failComment int
}

func newFakeAnnouncer() *fakeAnnouncer {
	return &fakeAnnouncer{posts: map[string]string{}, comments: map[string][]string{}}
}

func (a *fakeAnnouncer) CreatePost(_ context.Context, day, title string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failCreate > 0 {
		a.failCreate--
		return "", errors.New("announcement backend down")
	}
	ref := fmt.Sprintf("post-%s-%d", day, len(a.posts)+1)
	a.posts[ref] = title
	return ref, nil
}

func (a *fakeAnnouncer) PostComment(_ context.Context, ref, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.posts[ref]; !ok {
		return ErrNotFound
	}
	if a.failComment > 0 {
		a.failComment--
		return errors.New("comment backend down")
	}
	a.comments[ref] = append(a.comments[ref], body)
	return nil
}

// failingStore fails every write whose key contains one of the substrings.
type failingStore struct {
	store.Store
	failKeys []string
}

var errInjected = fmt.Errorf("%w: injected", store.ErrUnavailable)

func (f *failingStore) fails(key string) bool {
	for _, k := range f.failKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

func (f *failingStore) SetString(ctx context.Context, key, value string) error {
	if f.fails(key) {
		return errInjected
	}
	return f.Store.SetString(ctx, key, value)
}

func (f *failingStore) SetStringNX(ctx context.Context, key, value string) (bool, error) {
	if f.fails(key) {
		return false, errInjected
	}
	return f.Store.SetStringNX(ctx, key, value)
}

func (f *failingStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if f.fails(key) {
		return 0, errInjected
	}
	return f.Store.Increment(ctx, key, delta)
}

type fixture struct {
	store     store.Store
	keys      store.Keys
	clock     *testClock
	ledger    *Ledger
	prompts   *PromptEngine
	announcer *fakeAnnouncer
	rollover  *Rollover
}

func newFixture(t *testing.T, day string, s store.Store) *fixture {
	t.Helper()
	if s == nil {
		s = store.NewMemoryStore()
	}
	keys := store.NewKeys("test:")
	clock := newTestClock(day)
	ledger := NewLedger(s, keys, clock, LedgerRules{MaxVotesPerDay: 50, MaxImageBase64Length: 680000}, nil)
	prompts := NewPromptEngine(s, keys, clock, PromptRules{MinLength: 5, MaxLength: 120, MaxVotesPerDay: 30}, ledger, nil)
	announcer := newFakeAnnouncer()
	rollover := NewRollover(RolloverOptions{
		Store:     s,
		Keys:      keys,
		Clock:     clock,
		Ledger:    ledger,
		Prompts:   prompts,
		Announcer: announcer,
	})
	return &fixture{store: s, keys: keys, clock: clock, ledger: ledger, prompts: prompts, announcer: announcer, rollover: rollover}
}

func (f *fixture) submit(t *testing.T, author, day string) string {
	t.Helper()
	id, err := f.ledger.Submit(context.Background(), author, day, testImage, "")
	if err != nil {
		t.Fatalf("submit %s: %v", author, err)
	}
	return id
}

func (f *fixture) votes(t *testing.T, id, day string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.ledger.Vote(context.Background(), id, fmt.Sprintf("voter%d", i), day); err != nil {
			t.Fatalf("vote %d on %s: %v", i, id, err)
		}
	}
}

func (f *fixture) setWins(t *testing.T, user string, n int64) {
	t.Helper()
	if _, err := f.store.Increment(context.Background(), f.keys.UserWins(user), n); err != nil {
		t.Fatalf("set wins: %v", err)
	}
}
