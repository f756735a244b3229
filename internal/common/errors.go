package common

import (
	"errors"
	"fmt"
	"strings"
)

// AppError is the failure returned at an orchestration boundary. Kind is the
// sentinel callers match with errors.Is; Step names the operation that failed.
type AppError struct {
	Kind       error
	Step       string
	StatusCode int // upstream HTTP status, 0 if the call never completed
	Detail     string
	Cause      error
}

func (e *AppError) Error() string {
	var b strings.Builder
	if e.Step != "" {
		b.WriteString(e.Step)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("unknown error")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Detail != "":
		b.WriteString(": ")
		b.WriteString(e.Detail)
	case e.Cause != nil:
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is reports whether target is the error kind.
func (e *AppError) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError for a step, lifting status and body from
// an *HTTPStatusError found in cause.
func NewAppError(kind error, step string, cause error) *AppError {
	e := &AppError{Kind: kind, Step: step, Cause: cause}
	var se *HTTPStatusError
	if errors.As(cause, &se) {
		e.StatusCode = se.StatusCode
		e.Detail = se.Detail()
	}
	return e
}

// HTTPStatusError is a non-2xx response from a remote service.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return "unexpected response: " + e.Detail()
}

// Detail renders the status line and the trimmed body text.
func (e *HTTPStatusError) Detail() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return status
	}
	return status + " - " + body
}

// WrapError annotates err with message, keeping it matchable.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
