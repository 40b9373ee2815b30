package services

import "errors"

var (
	ErrUnauthenticated = errors.New("you must be logged in")
	ErrForbidden       = errors.New("moderator access required")
	ErrNotFound        = errors.New("not found")

	ErrAlreadySubmittedToday = errors.New("you already submitted today, one submission per day")
	ErrPayloadTooLarge       = errors.New("image too large, use a PNG under ~500KB")
	ErrInvalidImage          = errors.New("invalid image")
	ErrSelfVote              = errors.New("you cannot vote for your own entry")
	ErrAlreadyVoted          = errors.New("already voted")
	ErrRateLimited           = errors.New("vote limit reached")

	ErrTooShort             = errors.New("prompt is too short")
	ErrTooLong              = errors.New("prompt is too long")
	ErrProfane              = errors.New("prompt contains inappropriate content")
	ErrAlreadyProposedToday = errors.New("you already submitted a prompt today, one per day")
	ErrNotPending           = errors.New("prompt is no longer pending")

	ErrDayAlreadyClosed = errors.New("day already closed")
)
