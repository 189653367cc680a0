package service

import "errors"

var (
	// ErrInsufficientQuestions is returned when an exam asks for a larger
	// random subset than its question pool can provide.
	ErrInsufficientQuestions = errors.New("not enough questions in pool")

	// ErrSessionCompleted is returned when progress is recorded against a
	// session that has already been finalized.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrSessionExpired is returned when deadline enforcement is on and the
	// session's time window has elapsed.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials is returned on a failed admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
