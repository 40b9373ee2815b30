package models

// PromptIdeaStatus progresses pending -> selected|rejected, selected -> used.
type PromptIdeaStatus string

const (
	PromptPending  PromptIdeaStatus = "pending"
	PromptSelected PromptIdeaStatus = "selected"
	PromptRejected PromptIdeaStatus = "rejected"
	PromptUsed     PromptIdeaStatus = "used"
)

// PromptIdea is a community-proposed topic.
type PromptIdea struct {
	ID          string           `json:"id"`
	Seq         int64            `json:"seq"`
	Text        string           `json:"text"`
	CreatedBy   string           `json:"createdBy"`
	CreatedAt   int64            `json:"createdAt"` // unix millis
	Status      PromptIdeaStatus `json:"status"`
	SelectedFor string           `json:"selectedFor,omitempty"`
	ResolvedAt  int64            `json:"resolvedAt,omitempty"`
}

// PromptIdeaDisplay carries the live counts used for ranking.
type PromptIdeaDisplay struct {
	PromptIdea
	VoteCount          int  `json:"voteCount"`
	EffectiveVoteCount int  `json:"effectiveVoteCount"`
	HasVoted           bool `json:"hasVoted"`
}
