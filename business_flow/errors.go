// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Queue-related errors
	ErrQueueNotFound = errors.New("queue not found")
	ErrQueueClosed   = errors.New("queue is closed")

	// Ticket-related errors
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrTicketNotInQueue        = errors.New("ticket does not belong to this queue")
	ErrInvalidTicketTransition = errors.New("invalid ticket status transition")

	// Stage-related errors
	ErrStageNotFound       = errors.New("display stage not found")
	ErrLastStageForStatus  = errors.New("cannot remove the last stage mapped to a status")
	ErrMissingStageMapping = errors.New("no display stage mapped to the required status")

	// Counter and session errors
	ErrCounterNotFound   = errors.New("counter not found")
	ErrCounterNotInQueue = errors.New("counter does not belong to this queue")
	ErrCounterInUse      = errors.New("counter is occupied by another operator")
	ErrLastCounter       = errors.New("cannot remove the last counter of a queue")
	ErrSessionNotFound   = errors.New("counter session not found")

	// Operator errors
	ErrOperatorNotFound  = errors.New("operator not found")
	ErrOperatorInactive  = errors.New("operator account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrNotQueueOwner     = errors.New("operator does not own this queue")

	// Access token errors
	ErrTokenInvalid = errors.New("token is invalid")

	// Quota errors
	ErrQuotaExceeded = errors.New("plan quota exceeded")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsQueueNotFound(err error) bool {
	return errors.Is(err, ErrQueueNotFound)
}

func IsQueueClosed(err error) bool {
	return errors.Is(err, ErrQueueClosed)
}

func IsTicketNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

func IsTicketNotInQueue(err error) bool {
	return errors.Is(err, ErrTicketNotInQueue)
}

func IsInvalidTicketTransition(err error) bool {
	return errors.Is(err, ErrInvalidTicketTransition)
}

func IsStageNotFound(err error) bool {
	return errors.Is(err, ErrStageNotFound)
}

func IsLastStageForStatus(err error) bool {
	return errors.Is(err, ErrLastStageForStatus)
}

func IsMissingStageMapping(err error) bool {
	return errors.Is(err, ErrMissingStageMapping)
}

func IsCounterNotFound(err error) bool {
	return errors.Is(err, ErrCounterNotFound)
}

func IsCounterNotInQueue(err error) bool {
	return errors.Is(err, ErrCounterNotInQueue)
}

func IsCounterInUse(err error) bool {
	return errors.Is(err, ErrCounterInUse)
}

func IsLastCounter(err error) bool {
	return errors.Is(err, ErrLastCounter)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsOperatorNotFound(err error) bool {
	return errors.Is(err, ErrOperatorNotFound)
}

func IsOperatorInactive(err error) bool {
	return errors.Is(err, ErrOperatorInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsNotQueueOwner(err error) bool {
	return errors.Is(err, ErrNotQueueOwner)
}

func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrTokenInvalid)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
