// Package domain defines core types, interfaces, and errors for variant search.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError indicates a malformed search request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConfigurationError indicates an under-specified inheritance filter.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// CapabilityError indicates a backend target cannot render an expression node.
type CapabilityError struct {
	Message string
}

func (e *CapabilityError) Error() string { return e.Message }

// NotFoundError indicates a sample or variant was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// UnsupportedError indicates a request shape the active backend does not implement.
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConfiguration creates a ConfigurationError with a formatted message.
func ErrConfiguration(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ErrCapability creates a CapabilityError with a formatted message.
func ErrCapability(format string, args ...interface{}) *CapabilityError {
	return &CapabilityError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupported creates an UnsupportedError with a formatted message.
func ErrUnsupported(format string, args ...interface{}) *UnsupportedError {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}

// JoinMessages merges failures collected from independent sub-loads into a
// single error. Messages are de-duplicated, sorted and joined with "; ". When
// every failure is of the same class the result keeps that class; otherwise
// the first non-request failure is returned unchanged.
func JoinMessages(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	seen := make(map[string]bool, len(errs))
	var msgs []string
	for _, err := range errs {
		if !seen[err.Error()] {
			seen[err.Error()] = true
			msgs = append(msgs, err.Error())
		}
	}
	sort.Strings(msgs)
	joined := strings.Join(msgs, "; ")

	switch {
	case allAs[*NotFoundError](errs):
		return &NotFoundError{Message: joined}
	case allAs[*ValidationError](errs):
		return &ValidationError{Message: joined}
	case allAs[*ConfigurationError](errs):
		return &ConfigurationError{Message: joined}
	}
	for _, err := range errs {
		if !isRequestError(err) {
			return err
		}
	}
	return &ValidationError{Message: joined}
}

func allAs[T error](errs []error) bool {
	for _, err := range errs {
		var target T
		if !errors.As(err, &target) {
			return false
		}
	}
	return true
}

// isRequestError reports whether err is one of the caller-facing request failures.
func isRequestError(err error) bool {
	var (
		v *ValidationError
		c *ConfigurationError
		n *NotFoundError
		u *UnsupportedError
	)
	return errors.As(err, &v) || errors.As(err, &c) || errors.As(err, &n) || errors.As(err, &u)
}
