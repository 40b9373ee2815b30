package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/store"
)

func TestProposeValidation(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	ctx := context.Background()
	day := "2026-03-10"

	cases := []struct {
		name string
		text string
		want error
	}{
		{"too short", "Draw", ErrTooShort},
		{"too short after trim", "   abc   ", ErrTooShort},
		{"too long", strings.Repeat("x", 121), ErrTooLong},
		{"profane", "Draw a DAMN cat", ErrProfane},
	}
	for _, tc := range cases {
		if _, err := f.prompts.Propose(ctx, "ivy", day, tc.text); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	id, err := f.prompts.Propose(ctx, "ivy", day, "  Draw a <b>lighthouse</b>  ")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	idea, err := f.prompts.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if idea.Text != "Draw a lighthouse" || idea.Status != models.PromptPending || idea.CreatedBy != "ivy" {
		t.Fatalf("idea = %+v", idea)
	}
	if _, err := f.prompts.Propose(ctx, "ivy", day, "Draw a second thing"); !errors.Is(err, ErrAlreadyProposedToday) {
		t.Fatalf("second proposal err = %v", err)
	}
	if ok, _ := f.prompts.HasProposed(ctx, "ivy", day); !ok {
		t.Fatalf("HasProposed should be true")
	}
	if _, err := f.prompts.Propose(ctx, "ivy", "2026-03-11", "Draw a second thing"); err != nil {
		t.Fatalf("next day proposal: %v", err)
	}
}

func TestWinBonusDecidesSelection(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	ctx := context.Background()
	day := "2026-03-10"

	p1, err := f.prompts.Propose(ctx, "u1", day, "Draw a cat")
	if err != nil {
		t.Fatalf("propose p1: %v", err)
	}
	p2, err := f.prompts.Propose(ctx, "u2", day, "Draw a dog")
	if err != nil {
		t.Fatalf("propose p2: %v", err)
	}
	f.setWins(t, "u1", 2)
	for i := 0; i < 3; i++ {
		if _, err := f.prompts.VoteOnProposal(ctx, p1, fmt.Sprintf("v%d", i), day); err != nil {
			t.Fatalf("vote p1: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		if _, err := f.prompts.VoteOnProposal(ctx, p2, fmt.Sprintf("v%d", i), day); err != nil {
			t.Fatalf("vote p2: %v", err)
		}
	}

	list, err := f.prompts.ListPending(ctx, "v3")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != p1 || list[0].EffectiveVoteCount != 5 || list[0].VoteCount != 3 {
		t.Fatalf("list[0] = %+v", list)
	}
	if list[1].ID != p2 || list[1].EffectiveVoteCount != 4 || !list[1].HasVoted || list[0].HasVoted {
		t.Fatalf("list[1] = %+v", list[1])
	}

	text, err := f.prompts.SelectDaily(ctx, day)
	if err != nil || text != "Draw a cat" {
		t.Fatalf("select = %q, %v", text, err)
	}
	idea, _ := f.prompts.Get(ctx, p1)
	if idea.Status != models.PromptUsed || idea.SelectedFor != day {
		t.Fatalf("winner = %+v", idea)
	}
	if got, ok, _ := f.prompts.SelectedFor(ctx, day); !ok || got != "Draw a cat" {
		t.Fatalf("daily prompt = %q, %v", got, ok)
	}
	list, _ = f.prompts.ListPending(ctx, "")
	if len(list) != 1 || list[0].ID != p2 {
		t.Fatalf("pending after select = %+v", list)
	}

	// selecting the same day again keeps the promoted prompt
	again, err := f.prompts.SelectDaily(ctx, day)
	if err != nil || again != "Draw a cat" {
		t.Fatalf("reselect = %q, %v", again, err)
	}
	if idea, _ := f.prompts.Get(ctx, p2); idea.Status != models.PromptPending {
		t.Fatalf("p2 should still be pending: %+v", idea)
	}
}

func TestWinCountShiftsOrderWithoutTouchingVotes(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	ctx := context.Background()
	day := "2026-03-10"

	first, _ := f.prompts.Propose(ctx, "u1", day, "Draw a tree")
	second, _ := f.prompts.Propose(ctx, "u2", day, "Draw a boat")

	list, _ := f.prompts.ListPending(ctx, "")
	if list[0].ID != first {
		t.Fatalf("ties should keep proposal order: %+v", list)
	}
	f.setWins(t, "u2", 1)
	list, _ = f.prompts.ListPending(ctx, "")
	if list[0].ID != second || list[0].VoteCount != 0 || list[0].EffectiveVoteCount != 1 {
		t.Fatalf("bonus should lift the second proposal: %+v", list)
	}
}

func TestSelectDailyFallsBackToRotation(t *testing.T) {
	f := newFixture(t, "2026-01-02", nil)
	text, err := f.prompts.SelectDaily(context.Background(), "2026-01-02")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if want := DefaultPrompts[1%len(DefaultPrompts)]; text != want {
		t.Fatalf("fallback = %q, want %q", text, want)
	}
	if _, ok, _ := f.prompts.SelectedFor(context.Background(), "2026-01-02"); ok {
		t.Fatalf("rotation fallback must not be recorded as a promoted prompt")
	}
}

func TestProposeThenReject(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	ctx := context.Background()
	day := "2026-03-10"

	id, err := f.prompts.Propose(ctx, "ivy", day, "Draw a windmill")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := f.prompts.AdminReject(ctx, id); err != nil {
		t.Fatalf("reject: %v", err)
	}
	idea, err := f.prompts.Get(ctx, id)
	if err != nil || idea.Status != models.PromptRejected {
		t.Fatalf("after reject = %+v, %v", idea, err)
	}
	if list, _ := f.prompts.ListPending(ctx, ""); len(list) != 0 {
		t.Fatalf("rejected idea still listed: %+v", list)
	}
	if err := f.prompts.AdminReject(ctx, id); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second reject err = %v", err)
	}
	if _, err := f.prompts.AdminSelect(ctx, id, day); !errors.Is(err, ErrNotPending) {
		t.Fatalf("select rejected err = %v", err)
	}
	if _, err := f.prompts.VoteOnProposal(ctx, id, "bob", day); !errors.Is(err, ErrNotPending) {
		t.Fatalf("vote on rejected err = %v", err)
	}
	if err := f.prompts.AdminReject(ctx, "p404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reject unknown err = %v", err)
	}
}

func TestAdminSelectBypassesScore(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	ctx := context.Background()
	day := "2026-03-10"

	popular, _ := f.prompts.Propose(ctx, "u1", day, "Draw a volcano")
	quiet, _ := f.prompts.Propose(ctx, "u2", day, "Draw a teapot")
	if _, err := f.prompts.VoteOnProposal(ctx, popular, "v1", day); err != nil {
		t.Fatalf("vote: %v", err)
	}

	text, err := f.prompts.AdminSelect(ctx, quiet, day)
	if err != nil || text != "Draw a teapot" {
		t.Fatalf("admin select = %q, %v", text, err)
	}
	if got, _ := f.prompts.SelectDaily(ctx, day); got != "Draw a teapot" {
		t.Fatalf("rollover selection should keep the moderator's choice, got %q", got)
	}
}

func TestProposalVoteRules(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	f.prompts.rules.MaxVotesPerDay = 2
	ctx := context.Background()
	day := "2026-03-10"

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := f.prompts.Propose(ctx, fmt.Sprintf("author%d", i), day, fmt.Sprintf("Draw a planet %d", i))
		if err != nil {
			t.Fatalf("propose: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := f.prompts.VoteOnProposal(ctx, ids[0], "author0", day); !errors.Is(err, ErrSelfVote) {
		t.Fatalf("self vote err = %v", err)
	}
	if _, err := f.prompts.VoteOnProposal(ctx, ids[0], "zed", day); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := f.prompts.VoteOnProposal(ctx, ids[0], "zed", day); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("repeat vote err = %v", err)
	}
	if _, err := f.prompts.VoteOnProposal(ctx, ids[1], "zed", day); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := f.prompts.VoteOnProposal(ctx, ids[2], "zed", day); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("vote past ceiling err = %v", err)
	}
}

func TestOverride(t *testing.T) {
	f := newFixture(t, "2026-03-10", nil)
	ctx := context.Background()
	chain := NewPromptChain(f.store, f.keys)

	if err := f.prompts.SetOverride(ctx, "Draw a castle"); err != nil {
		t.Fatalf("set override: %v", err)
	}
	text, source, _ := chain.Resolve(ctx, "2026-03-10")
	if text != "Draw a castle" || source != SourceOverride {
		t.Fatalf("resolve = %q from %s", text, source)
	}
	if err := f.prompts.SetOverride(ctx, "  "); err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if _, source, _ := chain.Resolve(ctx, "2026-03-10"); source == SourceOverride {
		t.Fatalf("override should be cleared")
	}
}

func TestProposeReleasesMarkerOnFailure(t *testing.T) {
	failing := &failingStore{Store: store.NewMemoryStore(), failKeys: []string{"prompt:p"}}
	f := newFixture(t, "2026-03-10", failing)
	ctx := context.Background()
	day := "2026-03-10"

	if _, err := f.prompts.Propose(ctx, "ivy", day, "Draw a lighthouse"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("propose err = %v, want the store failure", err)
	}
	if ok, _ := f.prompts.HasProposed(ctx, "ivy", day); ok {
		t.Fatalf("marker kept after a failed proposal")
	}

	failing.failKeys = nil
	id, err := f.prompts.Propose(ctx, "ivy", day, "Draw a lighthouse")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	pending, err := f.prompts.ListPending(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %+v", pending)
	}
}
