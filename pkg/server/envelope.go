package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bluelink-community/vehicle-connect/internal/log"
	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
)

// Envelope is the uniform JSON wrapper used for every response.
type Envelope struct {
	Success        bool        `json:"success"`
	CommandInvoked string      `json:"command_invoked"`
	Message        string      `json:"message,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Error          string      `json:"error,omitempty"`
	Details        string      `json:"details,omitempty"`
}

// validationError marks client-side input problems, which map to HTTP 400.
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func invalidInput(format string, a ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, a...)}
}

// errDataNotAvailable marks a vehicle that does not report the requested field.
var errDataNotAvailable = errors.New("data not available")

func invalidData(field string) error {
	return fmt.Errorf("%s %w", field, errDataNotAvailable)
}

// statusCodeForError maps an error to the response status code. The duplicate-request
// signal is the only distinguished upstream error kind; everything else collapses to a
// generic 500.
func statusCodeForError(err error) int {
	var vErr *validationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, bluelink.ErrVehicleNotFound), errors.Is(err, errDataNotAvailable):
		return http.StatusNotFound
	case errors.Is(err, bluelink.ErrDuplicateRequest):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func writeEnvelope(w http.ResponseWriter, code int, reply *Envelope) {
	jsonBytes, err := json.Marshal(reply)
	if err != nil {
		log.Error("Error serializing reply %+v: %s", reply, err)
		code = http.StatusInternalServerError
		jsonBytes = []byte(`{"success": false, "error": "internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	jsonBytes = append(jsonBytes, '\n')
	w.Write(jsonBytes)
}

// writeSuccess sends the success envelope for a command.
func writeSuccess(w http.ResponseWriter, command string, data interface{}) {
	writeEnvelope(w, http.StatusOK, &Envelope{
		Success:        true,
		CommandInvoked: command,
		Message:        fmt.Sprintf("%s successful.", command),
		Data:           data,
	})
}

// writeError sends the failure envelope for a command, deriving the status code from err.
func writeError(w http.ResponseWriter, command string, err error) {
	code := statusCodeForError(err)
	log.Error("Returning %s for %s: %s", http.StatusText(code), command, err)
	reply := &Envelope{
		Success:        false,
		CommandInvoked: command,
		Error:          fmt.Sprintf("Error during %s.", command),
	}
	if err != nil {
		reply.Details = err.Error()
	}
	writeEnvelope(w, code, reply)
}
