package engine

import (
	"errors"

	"quiz-funnel/internal/domain"
)

var (
	// ErrUnexpectedEvent rejects an event that is not valid in the current state.
	ErrUnexpectedEvent = domain.NewError(domain.CodeUnexpectedEvent, "event not accepted in the current state", nil)
	// ErrAdLocked rejects Continue before the interstitial unlocks.
	ErrAdLocked = domain.NewError(domain.CodeAdLocked, "ad interstitial is still locked", nil)
	// ErrAnswerPending rejects a second answer while the previous one settles.
	ErrAnswerPending = domain.NewError(domain.CodeAnswerPending, "an answer is already being processed", nil)
	// ErrInvalidOption rejects an option that the question does not offer.
	ErrInvalidOption = domain.NewError(domain.CodeInvalidOption, "option is not offered by this question", nil)

	ErrNotStarted     = errors.New("engine: run not started")
	ErrAlreadyStarted = errors.New("engine: run already started")
	ErrClosed         = errors.New("engine: run closed")
	ErrNoLoader       = errors.New("engine: no definition loader configured")
)
