package bluelink

import (
	"errors"
	"fmt"
	"net/http"
)

// Error exposes methods useful for categorizing errors returned by the Bluelink backend.
type Error interface {
	error

	// MayHaveSucceeded returns true if the Error was triggered by a command that might
	// have been executed. For example, if the client times out while waiting for the
	// backend to confirm a lock command, it cannot tell whether the command was relayed.
	MayHaveSucceeded() bool

	// Temporary returns true if the Error might be the result of a transient condition.
	Temporary() bool
}

// Result codes used by the Bluelink backend inside HTTP 200 responses.
const (
	resCodeSuccess          = "0000"
	resCodeInvalidSession   = "4002"
	resCodeDuplicateRequest = "4004"
	resCodeRateLimited      = "5091"
)

var (
	// ErrDuplicateRequest indicates the backend rejected a command because an identical
	// command for the same vehicle is still in progress. Callers surface this as HTTP 429.
	ErrDuplicateRequest = NewError("duplicate request: command already in progress for this vehicle", true, true)

	// ErrInvalidSession indicates the access token was rejected. A new login resolves it.
	ErrInvalidSession = NewError("session expired or invalid", false, true)

	// ErrRateLimited indicates the backend refused the request due to upstream rate limits.
	ErrRateLimited = NewError("rate limited by backend", false, true)

	// ErrNotLoggedIn indicates a request was attempted before a successful Login.
	ErrNotLoggedIn = errors.New("account is not logged in")

	ErrVehicleNotFound = errors.New("vehicle not found in account")
)

type CommandError struct {
	Err               error
	PossibleSuccess   bool
	PossibleTemporary bool
}

func NewError(message string, mayHaveSucceeded bool, temporary bool) error {
	return &CommandError{Err: errors.New(message), PossibleSuccess: mayHaveSucceeded, PossibleTemporary: temporary}
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) MayHaveSucceeded() bool {
	return e.PossibleSuccess
}

func (e *CommandError) Temporary() bool {
	return e.PossibleTemporary
}

// HttpError wraps a non-200 response from the backend.
type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HttpError) MayHaveSucceeded() bool {
	if e.Code >= 400 && e.Code < 500 {
		return false
	}
	return e.Code != http.StatusServiceUnavailable
}

func (e *HttpError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

// errorFromResCode translates a backend result code into a distinguished error where one
// exists. The backend reports most application-level failures inside HTTP 200 bodies.
func errorFromResCode(resCode, resMsg string) error {
	switch resCode {
	case resCodeSuccess:
		return nil
	case resCodeDuplicateRequest:
		return ErrDuplicateRequest
	case resCodeInvalidSession:
		return ErrInvalidSession
	case resCodeRateLimited:
		return ErrRateLimited
	}
	if resMsg == "" {
		resMsg = "request rejected"
	}
	return &CommandError{Err: fmt.Errorf("backend error %s: %s", resCode, resMsg), PossibleSuccess: false, PossibleTemporary: false}
}

// MayHaveSucceeded returns true if err indicates the command may have been executed even
// though the client did not receive a confirmation.
func MayHaveSucceeded(err error) bool {
	if commErr, ok := err.(Error); ok && commErr.MayHaveSucceeded() {
		return true
	}
	return false
}

// Temporary returns true if err indicates a failure due to possibly transient conditions
// that do not require user action to resolve.
func Temporary(err error) bool {
	if commErr, ok := err.(Error); ok && commErr.Temporary() {
		return true
	}
	return false
}
