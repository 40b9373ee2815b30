package services

import (
	"context"

	"github.com/cppla/dailydraw/models"
)

// Profile assembles user's standing for day.
func Profile(ctx context.Context, ledger *Ledger, prompts *PromptEngine, user, day string, moderator bool) (models.UserProfile, error) {
	profile := models.UserProfile{Username: user, Date: day, IsModerator: moderator, Badge: models.BadgeNone}
	if user == "" {
		return profile, nil
	}
	wins, err := ledger.WinCount(ctx, user)
	if err != nil {
		return profile, err
	}
	profile.WinCount = wins
	profile.Badge = BadgeForWinCount(wins)
	if profile.HasSubmittedToday, err = ledger.HasSubmitted(ctx, user, day); err != nil {
		return profile, err
	}
	if profile.HasSubmittedPromptToday, err = prompts.HasProposed(ctx, user, day); err != nil {
		return profile, err
	}
	return profile, nil
}
