package models

// BadgeTier is derived from a user's win count.
type BadgeTier string

const (
	BadgeNone   BadgeTier = "none"
	BadgeBronze BadgeTier = "bronze"
	BadgeSilver BadgeTier = "silver"
	BadgeGold   BadgeTier = "gold"
)

// UserProfile summarises a player's standing.
type UserProfile struct {
	Username                string    `json:"username"`
	WinCount                int       `json:"winCount"`
	Badge                   BadgeTier `json:"badge"`
	HasSubmittedToday       bool      `json:"hasSubmittedToday"`
	HasSubmittedPromptToday bool      `json:"hasSubmittedPromptToday"`
	IsModerator             bool      `json:"isModerator"`
	Date                    string    `json:"date"`
}
