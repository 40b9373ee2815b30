package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/store"
)

// LedgerRules are the per-day limits enforced by the ledger.
type LedgerRules struct {
	MaxVotesPerDay       int
	MaxImageBase64Length int
}

// Ledger owns drawing submissions, their votes and the closing of a day.
//
// Duplicate submissions and duplicate votes are rejected by conditional writes. The per-user daily vote
// counter is read before it is incremented, so two votes from one user racing each other can exceed the
// ceiling by one.
type Ledger struct {
	store  store.Store
	keys   store.Keys
	clock  Clock
	rules  LedgerRules
	logger *zap.Logger
	// podiums of closed days; closed days accept no votes, so they never change
	podiums *lru.Cache[string, []models.LeaderboardEntry]
}

// NewLedger creates a ledger on s.
func NewLedger(s store.Store, keys store.Keys, clock Clock, rules LedgerRules, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	podiums, _ := lru.New[string, []models.LeaderboardEntry](64)
	return &Ledger{store: s, keys: keys, clock: clock, rules: rules, logger: logger, podiums: podiums}
}

type rankedSubmission struct {
	sub   models.Submission
	votes int
}

// Submit records author's drawing for day and returns the new submission id.
func (l *Ledger) Submit(ctx context.Context, author, day, image, postRef string) (_ string, err error) {
	if author == "" {
		return "", ErrUnauthenticated
	}
	dataURL, err := NormalizeImage(image, l.rules.MaxImageBase64Length)
	if err != nil {
		return "", err
	}

	markerKey := l.keys.UserSubmission(author, day)
	if _, exists, err := l.store.GetString(ctx, markerKey); err != nil {
		return "", err
	} else if exists {
		return "", ErrAlreadySubmittedToday
	}

	seq, err := l.store.Increment(ctx, l.keys.SubmissionSeq(), 1)
	if err != nil {
		return "", err
	}
	id := "s" + strconv.FormatInt(seq, 10)

	claimed, err := l.store.SetStringNX(ctx, markerKey, id)
	if err != nil {
		return "", err
	}
	if !claimed {
		return "", ErrAlreadySubmittedToday
	}
	defer func() {
		if err != nil {
			releaseClaim(ctx, l.store, markerKey, l.logger)
		}
	}()

	sub := models.Submission{
		ID:        id,
		Seq:       seq,
		Username:  author,
		PostRef:   postRef,
		Date:      day,
		Timestamp: l.clock.Now().UnixMilli(),
		Image:     dataURL,
	}
	if err := store.SetJSON(ctx, l.store, l.keys.Submission(id), sub); err != nil {
		return "", err
	}
	if err := l.store.HashSet(ctx, l.keys.SubmissionsForDay(day), id, strconv.FormatInt(seq, 10)); err != nil {
		return "", err
	}
	l.logger.Info("submission recorded", zap.String("day", day), zap.String("submission", id), zap.String("author", author))
	return id, nil
}

// Get loads one submission.
func (l *Ledger) Get(ctx context.Context, id string) (models.Submission, error) {
	var sub models.Submission
	ok, err := store.GetJSON(ctx, l.store, l.keys.Submission(id), &sub)
	if err != nil {
		return sub, err
	}
	if !ok {
		return sub, ErrNotFound
	}
	return sub, nil
}

// submissionsForDay returns the day's submissions in submission order.
func (l *Ledger) submissionsForDay(ctx context.Context, day string) ([]models.Submission, error) {
	index, err := l.store.HashGetAll(ctx, l.keys.SubmissionsForDay(day))
	if err != nil {
		return nil, err
	}
	subs := make([]models.Submission, 0, len(index))
	for id := range index {
		sub, err := l.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			l.logger.Warn("indexed submission missing", zap.String("day", day), zap.String("submission", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Seq < subs[j].Seq })
	return subs, nil
}

// VoteCount is the number of distinct voters on a submission.
func (l *Ledger) VoteCount(ctx context.Context, submissionID string) (int, error) {
	n, err := l.store.HashLen(ctx, l.keys.Votes(submissionID))
	return int(n), err
}

// HasVoted reports whether voter already voted on submissionID.
func (l *Ledger) HasVoted(ctx context.Context, submissionID, voter string) (bool, error) {
	if voter == "" {
		return false, nil
	}
	_, ok, err := l.store.HashGet(ctx, l.keys.Votes(submissionID), voter)
	return ok, err
}

// ListForDay returns the day's gallery with live vote counts and viewer's hasVoted flags.
func (l *Ledger) ListForDay(ctx context.Context, day, viewer string) ([]models.SubmissionView, error) {
	subs, err := l.submissionsForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	views := make([]models.SubmissionView, 0, len(subs))
	for _, sub := range subs {
		votes, err := l.VoteCount(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		voted, err := l.HasVoted(ctx, sub.ID, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, models.SubmissionView{
			ID:        sub.ID,
			Username:  sub.Username,
			PostRef:   sub.PostRef,
			Date:      sub.Date,
			Timestamp: sub.Timestamp,
			ImageURL:  sub.Image,
			VoteCount: votes,
			HasVoted:  voted,
		})
	}
	return views, nil
}

// Vote records voter's vote on submissionID and returns the updated count. day selects the voter's
// daily ceiling.
func (l *Ledger) Vote(ctx context.Context, submissionID, voter, day string) (int, error) {
	if voter == "" {
		return 0, ErrUnauthenticated
	}
	sub, err := l.Get(ctx, submissionID)
	if err != nil {
		return 0, err
	}
	if sub.Username == voter {
		return 0, ErrSelfVote
	}
	if _, closed, err := l.WinRecord(ctx, sub.Date); err != nil {
		return 0, err
	} else if closed {
		return 0, ErrDayAlreadyClosed
	}
	return castVote(ctx, l.store, l.keys.Votes(submissionID), l.keys.UserVoteCount(voter, day), voter, l.rules.MaxVotesPerDay)
}

// releaseClaim drops a conditional-write marker after the work it guarded failed, so the caller can retry.
func releaseClaim(ctx context.Context, s store.Store, key string, logger *zap.Logger) {
	if err := s.Delete(ctx, key); err != nil {
		logger.Error("release claim failed", zap.String("key", key), zap.Error(err))
	}
}

// castVote is shared by drawing and prompt voting.
func castVote(ctx context.Context, s store.Store, votesKey, counterKey, voter string, ceiling int) (int, error) {
	if _, voted, err := s.HashGet(ctx, votesKey, voter); err != nil {
		return 0, err
	} else if voted {
		return 0, ErrAlreadyVoted
	}
	cast, err := store.GetInt(ctx, s, counterKey)
	if err != nil {
		return 0, err
	}
	if ceiling > 0 && cast >= int64(ceiling) {
		return 0, ErrRateLimited
	}
	added, err := s.HashSetNX(ctx, votesKey, voter, "1")
	if err != nil {
		return 0, err
	}
	if !added {
		return 0, ErrAlreadyVoted
	}
	if _, err := s.Increment(ctx, counterKey, 1); err != nil {
		return 0, err
	}
	n, err := s.HashLen(ctx, votesKey)
	return int(n), err
}

// rank orders the day's submissions by votes, earlier submissions first on ties.
func (l *Ledger) rank(ctx context.Context, day string) ([]rankedSubmission, error) {
	subs, err := l.submissionsForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	ranked := make([]rankedSubmission, 0, len(subs))
	for _, sub := range subs {
		votes, err := l.VoteCount(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, rankedSubmission{sub: sub, votes: votes})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].votes > ranked[j].votes })
	return ranked, nil
}

func podium(ranked []rankedSubmission) []models.LeaderboardEntry {
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	entries := make([]models.LeaderboardEntry, 0, len(ranked))
	for i, r := range ranked {
		entries = append(entries, models.LeaderboardEntry{
			Rank:         i + 1,
			SubmissionID: r.sub.ID,
			Username:     r.sub.Username,
			VoteCount:    r.votes,
			ImageURL:     r.sub.Image,
		})
	}
	return entries
}

// Leaderboard returns the day's top three. Closed days are read from their WinRecord, open days live.
func (l *Ledger) Leaderboard(ctx context.Context, day string) ([]models.LeaderboardEntry, error) {
	if entries, ok := l.podiums.Get(day); ok {
		return entries, nil
	}
	record, closed, err := l.WinRecord(ctx, day)
	if err != nil {
		return nil, err
	}
	if !closed {
		ranked, err := l.rank(ctx, day)
		if err != nil {
			return nil, err
		}
		return podium(ranked), nil
	}

	entries := make([]models.LeaderboardEntry, 0, 3)
	for i, id := range record.Winners {
		if id == "" {
			continue
		}
		sub, err := l.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		votes, err := l.VoteCount(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:         i + 1,
			SubmissionID: id,
			Username:     sub.Username,
			VoteCount:    votes,
			ImageURL:     sub.Image,
		})
	}
	l.podiums.Add(day, entries)
	return entries, nil
}

// WinRecord loads the persisted winners of a closed day.
func (l *Ledger) WinRecord(ctx context.Context, day string) (models.WinRecord, bool, error) {
	var record models.WinRecord
	ok, err := store.GetJSON(ctx, l.store, l.keys.Winners(day), &record)
	return record, ok, err
}

// CloseDay tallies the day, persists its WinRecord and credits one win to each placed author.
// A day without submissions yields (nil, nil, nil). The WinRecord is claimed with a conditional write, so
// a second call returns ErrDayAlreadyClosed; use SettleWins to retry credits that failed.
func (l *Ledger) CloseDay(ctx context.Context, day string) (*models.WinRecord, []models.LeaderboardEntry, error) {
	ranked, err := l.rank(ctx, day)
	if err != nil {
		return nil, nil, err
	}
	if len(ranked) == 0 {
		return nil, nil, nil
	}
	entries := podium(ranked)

	record := models.WinRecord{Date: day, ClosedAt: l.clock.Now().UnixMilli()}
	for i, e := range entries {
		record.Winners[i] = e.SubmissionID
	}
	written, err := store.SetJSONNX(ctx, l.store, l.keys.Winners(day), record)
	if err != nil {
		return nil, nil, err
	}
	if !written {
		return nil, nil, ErrDayAlreadyClosed
	}
	l.podiums.Add(day, entries)
	l.logger.Info("day closed", zap.String("day", day), zap.Strings("winners", record.Winners[:]))
	return &record, entries, l.creditWins(ctx, day, entries)
}

// SettleWins returns the podium of a closed day and credits any placed author whose win is still
// missing. It returns (nil, nil) for a day that is not closed.
func (l *Ledger) SettleWins(ctx context.Context, day string) ([]models.LeaderboardEntry, error) {
	if _, closed, err := l.WinRecord(ctx, day); err != nil || !closed {
		return nil, err
	}
	entries, err := l.Leaderboard(ctx, day)
	if err != nil {
		return nil, err
	}
	return entries, l.creditWins(ctx, day, entries)
}

// creditWins increments the win counter of each distinct placed author once per day. The day's credit
// hash records who was credited; a failed increment gives the slot back.
func (l *Ledger) creditWins(ctx context.Context, day string, entries []models.LeaderboardEntry) error {
	var errs []error
	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.Username] {
			continue
		}
		seen[e.Username] = true
		claimed, err := l.store.HashSetNX(ctx, l.keys.WinCredits(day), e.Username, "1")
		if err != nil {
			errs = append(errs, fmt.Errorf("credit win to %s: %w", e.Username, err))
			continue
		}
		if !claimed {
			continue
		}
		if _, err := l.store.Increment(ctx, l.keys.UserWins(e.Username), 1); err != nil {
			l.logger.Error("credit win failed", zap.String("day", day), zap.String("user", e.Username), zap.Error(err))
			errs = append(errs, fmt.Errorf("credit win to %s: %w", e.Username, err))
			if derr := l.store.HashDelete(ctx, l.keys.WinCredits(day), e.Username); derr != nil {
				l.logger.Error("release win credit failed", zap.String("day", day), zap.String("user", e.Username), zap.Error(derr))
			}
		}
	}
	return errors.Join(errs...)
}

// WinCount is user's lifetime top-three placements.
func (l *Ledger) WinCount(ctx context.Context, user string) (int, error) {
	n, err := store.GetInt(ctx, l.store, l.keys.UserWins(user))
	return int(n), err
}

// HasSubmitted reports whether user already entered a drawing for day.
func (l *Ledger) HasSubmitted(ctx context.Context, user, day string) (bool, error) {
	if user == "" {
		return false, nil
	}
	_, ok, err := l.store.GetString(ctx, l.keys.UserSubmission(user, day))
	return ok, err
}
