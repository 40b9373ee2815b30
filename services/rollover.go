package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/store"
)

// DefaultTitlePrefix precedes the prompt in announcement titles.
const DefaultTitlePrefix = "Daily Draw Challenge: "

// RolloverReport describes one rollover run.
type RolloverReport struct {
	RunID     string                    `json:"runId"`
	ClosedDay string                    `json:"closedDay"`
	Winners   []models.LeaderboardEntry `json:"winners,omitempty"`
	Announced bool                      `json:"announced"`
	OpenedDay string                    `json:"openedDay"`
	Prompt    string                    `json:"prompt,omitempty"`
	PostRef   string                    `json:"postRef,omitempty"`
	WasOpen   bool                      `json:"wasOpen"`
	WasClosed bool                      `json:"wasClosed"`
}

// Rollover closes the previous day and opens the current one.
type Rollover struct {
	store       store.Store
	keys        store.Keys
	clock       Clock
	ledger      *Ledger
	prompts     *PromptEngine
	chain       *PromptChain
	announcer   Announcer
	titlePrefix string
	logger      *zap.Logger
}

// RolloverOptions groups the collaborators of a Rollover.
type RolloverOptions struct {
	Store       store.Store
	Keys        store.Keys
	Clock       Clock
	Ledger      *Ledger
	Prompts     *PromptEngine
	Chain       *PromptChain
	Announcer   Announcer
	TitlePrefix string
	Logger      *zap.Logger
}

// NewRollover wires a rollover from opts.
func NewRollover(opts RolloverOptions) *Rollover {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.TitlePrefix == "" {
		opts.TitlePrefix = DefaultTitlePrefix
	}
	if opts.Chain == nil {
		opts.Chain = NewPromptChain(opts.Store, opts.Keys)
	}
	return &Rollover{
		store:       opts.Store,
		keys:        opts.Keys,
		clock:       opts.Clock,
		ledger:      opts.Ledger,
		prompts:     opts.Prompts,
		chain:       opts.Chain,
		announcer:   opts.Announcer,
		titlePrefix: opts.TitlePrefix,
		logger:      opts.Logger,
	}
}

// Run performs one rollover for the clock's current day. Closing yesterday never prevents opening today;
// failures of both phases are joined into the returned error.
func (r *Rollover) Run(ctx context.Context) (RolloverReport, error) {
	today := Today(r.clock)
	report := RolloverReport{
		RunID:     uuid.NewString(),
		ClosedDay: PrevDay(today),
		OpenedDay: today,
	}
	log := r.logger.With(zap.String("run", report.RunID))

	var errs []error
	if err := r.closeDay(ctx, &report, log); err != nil {
		log.Error("close day failed", zap.String("day", report.ClosedDay), zap.Error(err))
		errs = append(errs, fmt.Errorf("close %s: %w", report.ClosedDay, err))
	}
	if err := r.openDay(ctx, &report, log); err != nil {
		log.Error("open day failed", zap.String("day", today), zap.Error(err))
		errs = append(errs, fmt.Errorf("open %s: %w", today, err))
	}
	if len(errs) == 0 {
		log.Info("rollover complete", zap.String("closed", report.ClosedDay), zap.String("opened", today),
			zap.String("prompt", report.Prompt))
	}
	return report, errors.Join(errs...)
}

func (r *Rollover) closeDay(ctx context.Context, report *RolloverReport, log *zap.Logger) error {
	day := report.ClosedDay
	record, entries, err := r.ledger.CloseDay(ctx, day)
	if errors.Is(err, ErrDayAlreadyClosed) {
		report.WasClosed = true
		log.Info("day already closed", zap.String("day", day))
		// An earlier run may have failed to credit wins or to post the results.
		entries, err = r.ledger.SettleWins(ctx, day)
	} else if record == nil {
		if err == nil {
			log.Info("no submissions to close", zap.String("day", day))
		}
		return err
	}
	// The WinRecord is written; a partial credit failure is reported but the results still go out.
	report.Winners = entries
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	announced, err := r.announceResults(ctx, day, report.RunID, entries, log)
	if err != nil {
		errs = append(errs, err)
	}
	report.Announced = announced
	return errors.Join(errs...)
}

// announceResults comments the podium on the day's announcement once. The day_announced marker is claimed
// before posting and released when the comment fails, so a later run retries.
func (r *Rollover) announceResults(ctx context.Context, day, runID string, entries []models.LeaderboardEntry, log *zap.Logger) (bool, error) {
	if r.announcer == nil || len(entries) == 0 {
		return false, nil
	}
	ref, ok, err := r.store.GetString(ctx, r.keys.DailyPost(day))
	if err != nil {
		return false, err
	}
	if !ok || ref == "" {
		log.Warn("no announcement to comment on", zap.String("day", day))
		return false, nil
	}
	claimed, err := r.store.SetStringNX(ctx, r.keys.DayAnnounced(day), runID)
	if err != nil || !claimed {
		return false, err
	}
	if err := r.announcer.PostComment(ctx, ref, FormatResults(day, entries)); err != nil {
		releaseClaim(ctx, r.store, r.keys.DayAnnounced(day), log)
		return false, err
	}
	log.Info("results announced", zap.String("day", day), zap.String("post", ref))
	return true, nil
}

func (r *Rollover) openDay(ctx context.Context, report *RolloverReport, log *zap.Logger) (err error) {
	day := report.OpenedDay
	claimed, err := r.store.SetStringNX(ctx, r.keys.DayOpened(day), report.RunID)
	if err != nil {
		return err
	}
	if !claimed {
		report.WasOpen = true
		report.PostRef, _, _ = r.store.GetString(ctx, r.keys.DailyPost(day))
		log.Info("day already open", zap.String("day", day))
		return nil
	}
	// Release the claim on failure so the next run can open the day.
	defer func() {
		if err != nil {
			releaseClaim(ctx, r.store, r.keys.DayOpened(day), log)
		}
	}()

	prompt, err := r.prompts.SelectDaily(ctx, day)
	if err != nil {
		return err
	}
	report.Prompt = prompt
	if err = r.prompts.SetCurrent(ctx, prompt, day); err != nil {
		return err
	}
	ref, err := r.publish(ctx, day, prompt)
	if err != nil {
		return err
	}
	report.PostRef = ref
	return nil
}

func (r *Rollover) publish(ctx context.Context, day, prompt string) (string, error) {
	if r.announcer == nil {
		return "", nil
	}
	ref, err := r.announcer.CreatePost(ctx, day, r.titlePrefix+prompt)
	if err != nil {
		return "", err
	}
	if err := r.store.SetString(ctx, r.keys.DailyPost(day), ref); err != nil {
		return "", err
	}
	return ref, nil
}

// CreateDailyPost publishes an announcement for the current day with the resolved prompt in its title.
// It replaces the day's recorded post reference.
func (r *Rollover) CreateDailyPost(ctx context.Context) (string, error) {
	day := Today(r.clock)
	prompt, _, err := r.chain.Resolve(ctx, day)
	if err != nil {
		return "", err
	}
	ref, err := r.publish(ctx, day, prompt)
	if err != nil {
		return "", err
	}
	r.logger.Info("announcement created", zap.String("day", day), zap.String("post", ref))
	return ref, nil
}

// DailyPostRef returns the announcement reference recorded for day, or "".
func (r *Rollover) DailyPostRef(ctx context.Context, day string) (string, error) {
	ref, _, err := r.store.GetString(ctx, r.keys.DailyPost(day))
	return ref, err
}
