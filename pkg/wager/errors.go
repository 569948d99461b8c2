package wager

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the wagering engine.
var (
	ErrInvalidWager         = errors.New("invalid wager")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrTransactionFailed    = errors.New("transaction failed")
	ErrCreditUnconfirmed    = errors.New("credit unconfirmed")
	ErrTransactionRejected  = errors.New("transaction rejected")
	ErrPlayInProgress       = errors.New("play in progress")
	ErrUnknownGame          = errors.New("unknown game")
	ErrInvalidParameters    = errors.New("invalid game parameters")
	ErrInvalidPlayerID      = errors.New("invalid player id")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrInvalidPlayID        = errors.New("invalid play id")
	ErrInvalidReference     = errors.New("invalid reference")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidSession       = errors.New("invalid session")
	ErrInvalidPlayStatus    = errors.New("invalid play status")
	ErrInvalidServiceConfig = errors.New("invalid service config")
	ErrDuplicatePlay        = errors.New("duplicate play")
	ErrUnknownPlay          = errors.New("unknown play")
	ErrInvalidCreditFailure = errors.New("invalid credit failure")
	ErrInvalidResolution    = errors.New("invalid resolution")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
