package services

import "github.com/cppla/dailydraw/models"

// BadgeForWinCount maps a win counter to its tier: bronze from 1 win, silver from 3, gold from 5.
func BadgeForWinCount(wins int) models.BadgeTier {
	switch {
	case wins >= 5:
		return models.BadgeGold
	case wins >= 3:
		return models.BadgeSilver
	case wins >= 1:
		return models.BadgeBronze
	default:
		return models.BadgeNone
	}
}
