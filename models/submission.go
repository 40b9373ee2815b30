package models

// Submission is one drawing entered for a day. Stored as JSON in the ranking store, never mutated.
type Submission struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Username  string `json:"username"`
	PostRef   string `json:"postId,omitempty"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Image     string `json:"imageBase64"`
}

// SubmissionView is a Submission as shown in the gallery, with live votes.
type SubmissionView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	PostRef   string `json:"postId,omitempty"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
	ImageURL  string `json:"imageUrl"`
	VoteCount int    `json:"voteCount"`
	HasVoted  bool   `json:"hasVoted"`
}
