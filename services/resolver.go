package services

import (
	"context"

	"github.com/cppla/dailydraw/store"
)

// DefaultPrompts is the fallback rotation, indexed by day of year.
var DefaultPrompts = []string{
	"Draw your spirit animal",
	"Draw something that makes you happy",
	"Draw your favorite food",
	"Draw a dream you had",
	"Draw your superpower",
	"Draw something under the sea",
	"Draw your ideal vacation",
	"Draw a robot friend",
	"Draw something cozy",
	"Draw a portal to another world",
}

const fallbackPrompt = "Draw something amazing"

// Rotation returns the fallback prompt of day.
func Rotation(day string) string {
	n, ok := dayOfYear(day)
	if !ok || len(DefaultPrompts) == 0 {
		return fallbackPrompt
	}
	return DefaultPrompts[n%len(DefaultPrompts)]
}

// PromptSource names the resolver that produced a prompt.
type PromptSource string

const (
	SourceOverride PromptSource = "override"
	SourceDaily    PromptSource = "daily"
	SourceCurrent  PromptSource = "current"
	SourceRotation PromptSource = "rotation"
)

// PromptResolver yields day's prompt or reports that it has none.
type PromptResolver interface {
	Source() PromptSource
	Resolve(ctx context.Context, day string) (string, bool, error)
}

// stringKeyResolver answers with a non-empty value stored under one key.
type stringKeyResolver struct {
	source PromptSource
	store  store.Store
	key    func(day string) string
}

func (r stringKeyResolver) Source() PromptSource { return r.source }

func (r stringKeyResolver) Resolve(ctx context.Context, day string) (string, bool, error) {
	text, ok, err := r.store.GetString(ctx, r.key(day))
	if err != nil || !ok || text == "" {
		return "", false, err
	}
	return text, true, nil
}

type rotationResolver struct{}

func (rotationResolver) Source() PromptSource { return SourceRotation }

func (rotationResolver) Resolve(_ context.Context, day string) (string, bool, error) {
	return Rotation(day), true, nil
}

// PromptChain evaluates resolvers in order and returns the first answer.
type PromptChain struct {
	resolvers []PromptResolver
}

// NewPromptChain builds the read path: moderator override, the proposal promoted for the day, the legacy
// current pointer, then the rotation.
func NewPromptChain(s store.Store, keys store.Keys) *PromptChain {
	return &PromptChain{resolvers: []PromptResolver{
		stringKeyResolver{source: SourceOverride, store: s, key: func(string) string { return keys.PromptOverride() }},
		stringKeyResolver{source: SourceDaily, store: s, key: keys.DailyPrompt},
		stringKeyResolver{source: SourceCurrent, store: s, key: func(string) string { return keys.PromptCurrent() }},
		rotationResolver{},
	}}
}

// Resolve returns day's prompt and which resolver supplied it.
func (c *PromptChain) Resolve(ctx context.Context, day string) (string, PromptSource, error) {
	for _, r := range c.resolvers {
		text, ok, err := r.Resolve(ctx, day)
		if err != nil {
			return "", "", err
		}
		if ok {
			return text, r.Source(), nil
		}
	}
	return fallbackPrompt, SourceRotation, nil
}
