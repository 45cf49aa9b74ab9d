package domain

import "errors"

var (
	// ErrNoQuestions is returned when a session would start with an empty question list.
	ErrNoQuestions = errors.New("no questions to run")
	// ErrMatchNotFound is returned when a match id does not resolve to a live match.
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchNotJoinable is returned when a join arrives after the match left the waiting state.
	ErrMatchNotJoinable = errors.New("match is no longer accepting players")
	// ErrEmptyRoster is returned when a coach launches a match nobody has joined.
	ErrEmptyRoster = errors.New("match has no joined players")
	// ErrNotCoach is returned when a status transition comes from anyone but the match owner.
	ErrNotCoach = errors.New("only the match coach may change match status")
	// ErrPlayerNotInMatch is returned when a non-roster player submits a buzz or answer.
	ErrPlayerNotInMatch = errors.New("player has not joined this match")
	// ErrNoAnswerWindow is returned when an answer arrives with no pending buzz.
	ErrNoAnswerWindow = errors.New("no answer window is open")
	// ErrNotBuzzWinner is returned when a losing participant tries to answer.
	ErrNotBuzzWinner = errors.New("another player holds the buzz")
)
