package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/store"
	"github.com/cppla/dailydraw/utils"
)

// PromptRules bound proposal text and prompt voting.
type PromptRules struct {
	MinLength      int
	MaxLength      int
	MaxVotesPerDay int
}

// WinCounter reports a user's lifetime top-three placements. *Ledger implements it.
type WinCounter interface {
	WinCount(ctx context.Context, user string) (int, error)
}

// PromptEngine runs community topic proposals: submission, voting, ranking and promotion into a day's
// prompt slot.
type PromptEngine struct {
	store  store.Store
	keys   store.Keys
	clock  Clock
	rules  PromptRules
	wins   WinCounter
	logger *zap.Logger
}

// NewPromptEngine creates a prompt engine on s. wins supplies the proposer bonus.
func NewPromptEngine(s store.Store, keys store.Keys, clock Clock, rules PromptRules, wins WinCounter, logger *zap.Logger) *PromptEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if rules.MinLength <= 0 {
		rules.MinLength = 5
	}
	if rules.MaxLength <= 0 {
		rules.MaxLength = 120
	}
	return &PromptEngine{store: s, keys: keys, clock: clock, rules: rules, wins: wins, logger: logger}
}

// Propose records author's topic proposal for day and returns its id.
func (e *PromptEngine) Propose(ctx context.Context, author, day, text string) (_ string, err error) {
	if author == "" {
		return "", ErrUnauthenticated
	}
	text = strings.TrimSpace(utils.StripTags(text))
	n := utf8.RuneCountInString(text)
	if n < e.rules.MinLength {
		return "", ErrTooShort
	}
	if n > e.rules.MaxLength {
		return "", ErrTooLong
	}
	if ContainsProfanity(text) {
		return "", ErrProfane
	}

	markerKey := e.keys.UserPromptSubmission(author, day)
	if _, exists, err := e.store.GetString(ctx, markerKey); err != nil {
		return "", err
	} else if exists {
		return "", ErrAlreadyProposedToday
	}

	seq, err := e.store.Increment(ctx, e.keys.PromptSeq(), 1)
	if err != nil {
		return "", err
	}
	id := "p" + strconv.FormatInt(seq, 10)

	claimed, err := e.store.SetStringNX(ctx, markerKey, id)
	if err != nil {
		return "", err
	}
	if !claimed {
		return "", ErrAlreadyProposedToday
	}
	defer func() {
		if err != nil {
			releaseClaim(ctx, e.store, markerKey, e.logger)
		}
	}()

	idea := models.PromptIdea{
		ID:        id,
		Seq:       seq,
		Text:      text,
		CreatedBy: author,
		CreatedAt: e.clock.Now().UnixMilli(),
		Status:    models.PromptPending,
	}
	if err := store.SetJSON(ctx, e.store, e.keys.PromptIdea(id), idea); err != nil {
		return "", err
	}
	if err := e.store.HashSet(ctx, e.keys.PromptsPending(), id, strconv.FormatInt(seq, 10)); err != nil {
		return "", err
	}
	e.logger.Info("prompt proposed", zap.String("day", day), zap.String("proposal", id), zap.String("author", author))
	return id, nil
}

// Get loads a proposal in any status.
func (e *PromptEngine) Get(ctx context.Context, id string) (models.PromptIdea, error) {
	var idea models.PromptIdea
	ok, err := store.GetJSON(ctx, e.store, e.keys.PromptIdea(id), &idea)
	if err != nil {
		return idea, err
	}
	if !ok {
		return idea, ErrNotFound
	}
	return idea, nil
}

// HasProposed reports whether user already proposed a topic on day.
func (e *PromptEngine) HasProposed(ctx context.Context, user, day string) (bool, error) {
	if user == "" {
		return false, nil
	}
	_, ok, err := e.store.GetString(ctx, e.keys.UserPromptSubmission(user, day))
	return ok, err
}

// VoteOnProposal records voter's vote on a pending proposal and returns its raw vote count.
func (e *PromptEngine) VoteOnProposal(ctx context.Context, id, voter, day string) (int, error) {
	if voter == "" {
		return 0, ErrUnauthenticated
	}
	idea, err := e.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if idea.Status != models.PromptPending {
		return 0, ErrNotPending
	}
	if idea.CreatedBy == voter {
		return 0, ErrSelfVote
	}
	return castVote(ctx, e.store, e.keys.PromptVotes(id), e.keys.UserPromptVoteCount(voter, day), voter, e.rules.MaxVotesPerDay)
}

// EffectiveScore is the raw vote count plus the proposer's current win count.
func (e *PromptEngine) EffectiveScore(ctx context.Context, idea models.PromptIdea) (int, error) {
	votes, err := e.store.HashLen(ctx, e.keys.PromptVotes(idea.ID))
	if err != nil {
		return 0, err
	}
	bonus := 0
	if e.wins != nil {
		if bonus, err = e.wins.WinCount(ctx, idea.CreatedBy); err != nil {
			return 0, err
		}
	}
	return int(votes) + bonus, nil
}

// ListPending returns pending proposals ordered by effective score, earlier proposals first on ties.
func (e *PromptEngine) ListPending(ctx context.Context, viewer string) ([]models.PromptIdeaDisplay, error) {
	index, err := e.store.HashGetAll(ctx, e.keys.PromptsPending())
	if err != nil {
		return nil, err
	}
	out := make([]models.PromptIdeaDisplay, 0, len(index))
	for id := range index {
		idea, err := e.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			e.logger.Warn("pending proposal missing", zap.String("proposal", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		if idea.Status != models.PromptPending {
			continue
		}
		votes, err := e.store.HashLen(ctx, e.keys.PromptVotes(id))
		if err != nil {
			return nil, err
		}
		score, err := e.EffectiveScore(ctx, idea)
		if err != nil {
			return nil, err
		}
		voted := false
		if viewer != "" {
			if _, voted, err = e.store.HashGet(ctx, e.keys.PromptVotes(id), viewer); err != nil {
				return nil, err
			}
		}
		out = append(out, models.PromptIdeaDisplay{
			PromptIdea:         idea,
			VoteCount:          int(votes),
			EffectiveVoteCount: score,
			HasVoted:           voted,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveVoteCount > out[j].EffectiveVoteCount })
	return out, nil
}

// SelectedFor returns the prompt text promoted for day, if any.
func (e *PromptEngine) SelectedFor(ctx context.Context, day string) (string, bool, error) {
	return e.store.GetString(ctx, e.keys.DailyPrompt(day))
}

// SelectDaily resolves day's prompt: the top pending proposal by effective score is promoted; with no
// pending proposals the day-of-year rotation is returned. A day that already has a promoted prompt keeps it.
func (e *PromptEngine) SelectDaily(ctx context.Context, day string) (string, error) {
	if text, ok, err := e.SelectedFor(ctx, day); err != nil {
		return "", err
	} else if ok {
		return text, nil
	}

	pending, err := e.ListPending(ctx, "")
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		text := Rotation(day)
		e.logger.Info("no pending proposals, using rotation", zap.String("day", day), zap.String("prompt", text))
		return text, nil
	}
	winner := pending[0].PromptIdea
	if err := e.promote(ctx, winner, day); err != nil {
		return "", err
	}
	e.logger.Info("proposal selected", zap.String("day", day), zap.String("proposal", winner.ID),
		zap.Int("effectiveScore", pending[0].EffectiveVoteCount))
	return winner.Text, nil
}

// AdminSelect makes a pending proposal day's prompt regardless of its score.
func (e *PromptEngine) AdminSelect(ctx context.Context, id, day string) (string, error) {
	idea, err := e.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if idea.Status != models.PromptPending {
		return "", ErrNotPending
	}
	if err := e.promote(ctx, idea, day); err != nil {
		return "", err
	}
	e.logger.Info("proposal selected by moderator", zap.String("day", day), zap.String("proposal", id))
	return idea.Text, nil
}

// AdminReject retires a pending proposal without touching any prompt.
func (e *PromptEngine) AdminReject(ctx context.Context, id string) error {
	idea, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	if idea.Status != models.PromptPending {
		return ErrNotPending
	}
	idea.Status = models.PromptRejected
	idea.ResolvedAt = e.clock.Now().UnixMilli()
	if err := store.SetJSON(ctx, e.store, e.keys.PromptIdea(id), idea); err != nil {
		return err
	}
	if err := e.store.HashDelete(ctx, e.keys.PromptsPending(), id); err != nil {
		return err
	}
	e.logger.Info("proposal rejected", zap.String("proposal", id))
	return nil
}

// promote moves idea straight to used in a single document write, then records it as day's prompt.
func (e *PromptEngine) promote(ctx context.Context, idea models.PromptIdea, day string) error {
	idea.Status = models.PromptUsed
	idea.SelectedFor = day
	idea.ResolvedAt = e.clock.Now().UnixMilli()
	if err := store.SetJSON(ctx, e.store, e.keys.PromptIdea(idea.ID), idea); err != nil {
		return err
	}
	if err := e.store.HashDelete(ctx, e.keys.PromptsPending(), idea.ID); err != nil {
		return err
	}
	return e.store.SetString(ctx, e.keys.DailyPrompt(day), idea.Text)
}

// SetOverride replaces the global override text; an empty text clears it.
func (e *PromptEngine) SetOverride(ctx context.Context, text string) error {
	text = strings.TrimSpace(utils.StripTags(text))
	if text != "" && ContainsProfanity(text) {
		return ErrProfane
	}
	if utf8.RuneCountInString(text) > e.rules.MaxLength {
		return ErrTooLong
	}
	return e.store.SetString(ctx, e.keys.PromptOverride(), text)
}

// SetCurrent moves the legacy current-prompt pointer to text for day.
func (e *PromptEngine) SetCurrent(ctx context.Context, text, day string) error {
	if err := e.store.SetString(ctx, e.keys.PromptCurrent(), text); err != nil {
		return err
	}
	return e.store.SetString(ctx, e.keys.PromptDate(), day)
}
