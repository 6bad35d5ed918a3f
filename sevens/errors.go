package sevens

import (
	"errors"
	"fmt"
)

// Action errors: the request was understood but is not legal now.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrIllegalAction      = errors.New("illegal action")
	ErrTableNotInProgress = errors.New("table not in progress")
	ErrInsufficientStake  = errors.New("insufficient stake")
	ErrHandFull           = errors.New("hand is full")
	ErrAlreadySeated      = errors.New("already seated")
	ErrSeatOccupied       = errors.New("seat occupied")
	ErrInvalidSeat        = errors.New("invalid seat")
	ErrRoundInProgress    = errors.New("round in progress")
	ErrNotEnoughPlayers   = errors.New("not enough players")
)

// Capacity errors: a bounded resource ran out.
var (
	ErrTableFull = errors.New("table full")
	ErrEmptyDeck = errors.New("deck is empty")
)

// ActionError is returned for requests that are illegal in the current state.
// The game is left untouched.
type ActionError struct {
	Reason error
	Detail string
}

func (e *ActionError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Detail
}

func (e *ActionError) Unwrap() error { return e.Reason }

// CapacityError is returned when a seat or card is not available.
type CapacityError struct {
	Reason error
	Detail string
}

func (e *CapacityError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Detail
}

func (e *CapacityError) Unwrap() error { return e.Reason }

func actionErr(reason error, format string, args ...interface{}) error {
	return &ActionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func capacityErr(reason error, format string, args ...interface{}) error {
	return &CapacityError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }

// ErrorClass groups errors the way they are reported to clients.
type ErrorClass byte

const (
	ClassUnknown ErrorClass = iota
	ClassAction
	ClassCapacity
	ClassInternal
)

func Classify(err error) ErrorClass {
	var ae *ActionError
	var ce *CapacityError
	var ie InvalidStateError
	switch {
	case err == nil:
		return ClassUnknown
	case errors.As(err, &ae):
		return ClassAction
	case errors.As(err, &ce):
		return ClassCapacity
	case errors.As(err, &ie):
		return ClassInternal
	}
	return ClassUnknown
}
