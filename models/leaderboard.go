package models

// WinRecord holds the top three submission ids of a closed day. Empty strings mark absent places.
type WinRecord struct {
	Date     string    `json:"date"`
	Winners  [3]string `json:"winners"`
	ClosedAt int64     `json:"closedAt"`
}

// LeaderboardEntry is one podium place.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	SubmissionID string `json:"submissionId"`
	Username     string `json:"username"`
	VoteCount    int    `json:"voteCount"`
	ImageURL     string `json:"imageUrl"`
}
