package store

// Keys builds the namespaced key layout. Every key starts with the configured prefix (default "ddc:").
type Keys struct {
	Prefix string
}

// NewKeys returns a key builder for prefix.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "ddc:"
	}
	return Keys{Prefix: prefix}
}

// Prompt slots.
func (k Keys) PromptCurrent() string         { return k.Prefix + "prompt:current" }
func (k Keys) PromptDate() string            { return k.Prefix + "prompt:date" }
func (k Keys) PromptOverride() string        { return k.Prefix + "prompt:override" }
func (k Keys) DailyPrompt(day string) string { return k.Prefix + "currentDailyPrompt:" + day }

// Submissions and votes.
func (k Keys) SubmissionSeq() string               { return k.Prefix + "submission:id" }
func (k Keys) SubmissionsForDay(day string) string { return k.Prefix + "submissions:" + day }
func (k Keys) Submission(id string) string         { return k.Prefix + "submission:" + id }
func (k Keys) UserSubmission(user, day string) string {
	return k.Prefix + "user_sub:" + user + ":" + day
}
func (k Keys) Votes(submissionID string) string { return k.Prefix + "votes:" + submissionID }
func (k Keys) UserVoteCount(user, day string) string {
	return k.Prefix + "user_votes:" + user + ":" + day
}

// Results.
func (k Keys) Winners(day string) string      { return k.Prefix + "winners:" + day }
func (k Keys) UserWins(user string) string    { return k.Prefix + "user_wins:" + user }
func (k Keys) DailyPost(day string) string    { return k.Prefix + "daily_post:" + day }
func (k Keys) DayOpened(day string) string    { return k.Prefix + "day_opened:" + day }
func (k Keys) WinCredits(day string) string   { return k.Prefix + "win_credits:" + day }
func (k Keys) DayAnnounced(day string) string { return k.Prefix + "day_announced:" + day }

// Prompt proposals.
func (k Keys) PromptSeq() string            { return k.Prefix + "promptIdCounter" }
func (k Keys) PromptIdea(id string) string  { return k.Prefix + "prompt:" + id }
func (k Keys) PromptsPending() string       { return k.Prefix + "prompts:pending" }
func (k Keys) PromptVotes(id string) string { return k.Prefix + "promptVotes:" + id }
func (k Keys) UserPromptSubmission(user, day string) string {
	return k.Prefix + "userPromptSub:" + user + ":" + day
}
func (k Keys) UserPromptVoteCount(user, day string) string {
	return k.Prefix + "userPromptVotes:" + user + ":" + day
}
