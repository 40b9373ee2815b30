package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/dailydraw/config"
	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/store"
	"github.com/cppla/dailydraw/utils"
)

type memoryAnnouncer struct {
	mu    sync.Mutex
	posts []models.Post
}

func (a *memoryAnnouncer) CreatePost(_ context.Context, day, title string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref := fmt.Sprintf("ref-%d", len(a.posts)+1)
	a.posts = append(a.posts, models.Post{Ref: ref, DayKey: day, Title: title})
	return ref, nil
}

func (a *memoryAnnouncer) PostComment(_ context.Context, ref, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.posts {
		if a.posts[i].Ref == ref {
			a.posts[i].Comments = append(a.posts[i].Comments, models.Comment{Body: body})
			return nil
		}
	}
	return services.ErrNotFound
}

func (a *memoryAnnouncer) ListPosts(_ context.Context, page, pageSize int) ([]models.Post, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Post(nil), a.posts...), int64(len(a.posts)), nil
}

func (a *memoryAnnouncer) GetPost(_ context.Context, ref string) (models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.posts {
		if p.Ref == ref {
			return p, nil
		}
	}
	return models.Post{}, services.ErrNotFound
}

type testServer struct {
	router    *gin.Engine
	announcer *memoryAnnouncer
	store     *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config.Set(config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            "test",
		AdminUsernames:     []string{"mod"},
		SchedulerToken:     "cron-token",
		RateLimitPerMinute: 100000,
	})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := services.ClockFunc(func() time.Time { return now })
	kv := store.NewMemoryStore()
	keys := store.NewKeys("ddc:")
	ledger := services.NewLedger(kv, keys, clock, services.LedgerRules{MaxVotesPerDay: 50, MaxImageBase64Length: 1000}, nil)
	prompts := services.NewPromptEngine(kv, keys, clock, services.PromptRules{MaxVotesPerDay: 30}, ledger, nil)
	chain := services.NewPromptChain(kv, keys)
	announcer := &memoryAnnouncer{}
	rollover := services.NewRollover(services.RolloverOptions{
		Store: kv, Keys: keys, Clock: clock, Ledger: ledger, Prompts: prompts, Chain: chain, Announcer: announcer,
	})
	r := SetupRouter(Dependencies{
		Ledger:    ledger,
		Prompts:   prompts,
		Chain:     chain,
		Rollover:  rollover,
		Posts:     announcer,
		Clock:     clock,
		AccessLog: zap.NewNop(),
	})
	return &testServer{router: r, announcer: announcer, store: kv}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := utils.GenerateToken(1, user, time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestSubmitAndVote(t *testing.T) {
	s := newTestServer(t)
	image := map[string]string{"imageBase64": "data:image/png;base64,QUJD"}

	if status, _ := s.do(t, http.MethodPost, "/api/submit", "", image); status != http.StatusUnauthorized {
		t.Fatalf("anonymous submit status = %d", status)
	}
	status, env := s.do(t, http.MethodPost, "/api/submit", "alice", image)
	if status != http.StatusOK || env.Code != 0 {
		t.Fatalf("submit = %d %+v", status, env)
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &created)

	status, env = s.do(t, http.MethodPost, "/api/submit", "alice", image)
	if status != http.StatusConflict || env.Code != 40901 {
		t.Fatalf("duplicate submit = %d %+v", status, env)
	}

	vote := map[string]string{"submissionId": created.ID}
	if status, env = s.do(t, http.MethodPost, "/api/vote", "alice", vote); status != http.StatusBadRequest || env.Code != 40011 {
		t.Fatalf("self vote = %d %+v", status, env)
	}
	status, env = s.do(t, http.MethodPost, "/api/vote", "bob", vote)
	if status != http.StatusOK {
		t.Fatalf("vote = %d %+v", status, env)
	}
	var voted struct {
		VoteCount int `json:"voteCount"`
	}
	decode(t, env.Data, &voted)
	if voted.VoteCount != 1 {
		t.Fatalf("voteCount = %d", voted.VoteCount)
	}
	if status, env = s.do(t, http.MethodPost, "/api/vote", "bob", vote); status != http.StatusConflict || env.Code != 40902 {
		t.Fatalf("repeat vote = %d %+v", status, env)
	}

	status, env = s.do(t, http.MethodGet, "/api/submissions", "bob", nil)
	if status != http.StatusOK {
		t.Fatalf("list = %d", status)
	}
	var gallery struct {
		Submissions []models.SubmissionView `json:"submissions"`
	}
	decode(t, env.Data, &gallery)
	if len(gallery.Submissions) != 1 || !gallery.Submissions[0].HasVoted || gallery.Submissions[0].VoteCount != 1 {
		t.Fatalf("gallery = %+v", gallery)
	}
}

func TestProposalModeration(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/prompts", "alice", map[string]string{"text": "Draw a snail"})
	if status != http.StatusOK {
		t.Fatalf("propose = %d %+v", status, env)
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &created)

	if status, env = s.do(t, http.MethodPost, "/api/prompts", "bob", map[string]string{"text": "hi"}); env.Code != 40012 {
		t.Fatalf("short proposal = %d %+v", status, env)
	}
	if status, _ = s.do(t, http.MethodPost, "/api/prompts/"+created.ID+"/select", "bob", nil); status != http.StatusForbidden {
		t.Fatalf("non-moderator select status = %d", status)
	}
	if status, env = s.do(t, http.MethodPost, "/api/prompts/"+created.ID+"/select", "mod", nil); status != http.StatusOK {
		t.Fatalf("select = %d %+v", status, env)
	}

	_, env = s.do(t, http.MethodGet, "/api/prompt", "", nil)
	var active struct {
		Prompt string `json:"prompt"`
		Source string `json:"source"`
	}
	decode(t, env.Data, &active)
	if active.Prompt != "Draw a snail" || active.Source != "daily" {
		t.Fatalf("active prompt = %+v", active)
	}

	_, env = s.do(t, http.MethodGet, "/api/prompts/top", "", nil)
	var top struct {
		Prompt *string `json:"prompt"`
	}
	decode(t, env.Data, &top)
	if top.Prompt == nil || *top.Prompt != "Draw a snail" {
		t.Fatalf("top = %+v", top)
	}

	if status, env = s.do(t, http.MethodPost, "/api/prompts/"+created.ID+"/reject", "mod", nil); status != http.StatusConflict || env.Code != 40904 {
		t.Fatalf("reject used proposal = %d %+v", status, env)
	}
	if status, env = s.do(t, http.MethodPut, "/api/prompts/override", "mod", map[string]string{"prompt": "Draw a moon"}); status != http.StatusOK {
		t.Fatalf("override = %d %+v", status, env)
	}
	_, env = s.do(t, http.MethodGet, "/api/prompt", "", nil)
	decode(t, env.Data, &active)
	if active.Prompt != "Draw a moon" || active.Source != "override" {
		t.Fatalf("override prompt = %+v", active)
	}
}

func TestSchedulerTrigger(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/internal/scheduler/daily-rollover", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("missing token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/internal/scheduler/daily-rollover", nil)
	req.Header.Set("X-Scheduler-Token", "cron-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"status":"ok"`)) {
		t.Fatalf("rollover = %d %s", w.Code, w.Body.String())
	}
	if len(s.announcer.posts) != 1 || s.announcer.posts[0].DayKey != "2026-03-10" {
		t.Fatalf("posts = %+v", s.announcer.posts)
	}

	status, env := s.do(t, http.MethodGet, "/api/posts/"+s.announcer.posts[0].Ref, "", nil)
	if status != http.StatusOK {
		t.Fatalf("get post = %d %+v", status, env)
	}
	if status, _ = s.do(t, http.MethodGet, "/api/posts/missing", "", nil); status != http.StatusNotFound {
		t.Fatalf("missing post status = %d", status)
	}
}

func TestProfileAndValidation(t *testing.T) {
	s := newTestServer(t)

	if status, env := s.do(t, http.MethodGet, "/api/leaderboard?date=2026-3-1", "", nil); status != http.StatusBadRequest || env.Code != 40015 {
		t.Fatalf("bad date = %d %+v", status, env)
	}
	if _, err := s.store.Increment(context.Background(), "ddc:user_wins:mod", 5); err != nil {
		t.Fatalf("seed wins: %v", err)
	}
	status, env := s.do(t, http.MethodGet, "/api/profile", "mod", nil)
	if status != http.StatusOK {
		t.Fatalf("profile = %d %+v", status, env)
	}
	var profile models.UserProfile
	decode(t, env.Data, &profile)
	if profile.WinCount != 5 || profile.Badge != models.BadgeGold || !profile.IsModerator || profile.Date != "2026-03-10" {
		t.Fatalf("profile = %+v", profile)
	}

	status, env = s.do(t, http.MethodGet, "/api/init", "", nil)
	if status != http.StatusOK {
		t.Fatalf("init = %d", status)
	}
	var boot struct {
		Prompt       string `json:"prompt"`
		PromptSource string `json:"promptSource"`
	}
	decode(t, env.Data, &boot)
	if boot.Prompt != services.Rotation("2026-03-10") || boot.PromptSource != "rotation" {
		t.Fatalf("init = %+v", boot)
	}
}
