package protocol

import (
	"errors"
	"fmt"
)

// DecodeErrorKind classifies why a frame was rejected.
type DecodeErrorKind uint8

const (
	Malformed DecodeErrorKind = iota + 1
	UnknownVariant
	VersionMismatch
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case UnknownVariant:
		return "unknown variant"
	case VersionMismatch:
		return "version mismatch"
	}
	return fmt.Sprintf("DecodeErrorKind(%d)", k)
}

// DecodeError is returned by every Codec.Decode failure. It is recoverable:
// the frame is dropped and the connection stays open.
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode: " + e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func malformed(detail string, err error) error {
	return &DecodeError{Kind: Malformed, Detail: detail, Err: err}
}

// DecodeKind extracts the DecodeErrorKind of err, or 0.
func DecodeKind(err error) DecodeErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// ErrorCode is sent in Error messages.
type ErrorCode uint32

const (
	CodeUnknown ErrorCode = 0

	// protocol errors
	CodeMalformed       ErrorCode = 1
	CodeUnknownVariant  ErrorCode = 2
	CodeVersionMismatch ErrorCode = 3
	CodeNotMember       ErrorCode = 4
	CodeWrongDirection  ErrorCode = 5
	CodeRateLimited     ErrorCode = 6
	CodeTableNotFound   ErrorCode = 7

	// action errors
	CodeNotYourTurn        ErrorCode = 10
	CodeIllegalAction      ErrorCode = 11
	CodeTableNotInProgress ErrorCode = 12
	CodeInsufficientStake  ErrorCode = 13
	CodeHandFull           ErrorCode = 14
	CodeAlreadySeated      ErrorCode = 15
	CodeSeatOccupied       ErrorCode = 16
	CodeInvalidSeat        ErrorCode = 17
	CodeRoundInProgress    ErrorCode = 18
	CodeNotEnoughPlayers   ErrorCode = 19

	// capacity errors
	CodeTableFull ErrorCode = 20
	CodeEmptyDeck ErrorCode = 21

	CodeInternal ErrorCode = 30
)

// CodeForDecode maps a decode failure to its wire code.
func CodeForDecode(err error) ErrorCode {
	switch DecodeKind(err) {
	case Malformed:
		return CodeMalformed
	case UnknownVariant:
		return CodeUnknownVariant
	case VersionMismatch:
		return CodeVersionMismatch
	}
	return CodeUnknown
}
