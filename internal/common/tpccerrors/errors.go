// Package tpccerrors contains the error types returned by the benchmark engine and its collaborators. Callers
// should use errors.As to look through wrapped errors for these types.
//
// If multiple errors occur in some function (e.g., several tables fail to drop), that function should return an
// error of type multierror.Error from package github.com/hashicorp/go-multierror that encapsulates those
// individual errors.
package tpccerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrIllegalState is returned when an operation is requested while the engine is in a status that forbids it,
// e.g. starting a run while data is being loaded.
type ErrIllegalState struct {
	Operation string // The attempted operation, e.g., "start"
	State     string // The status the engine was in
	Message   string // An optional message to include in the error message
}

func (err *ErrIllegalState) Error() (s string) {
	s = fmt.Sprintf("cannot %s while %s", err.Operation, err.State)
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrNoData is returned when a benchmark run is requested against a database that holds no TPC-C data.
type ErrNoData struct {
	Message string
}

const noDataMessage = "No TPC-C data found. Please load data first."

func (err *ErrNoData) Error() string {
	if err.Message == "" {
		return noDataMessage
	}
	return err.Message
}

// ErrConnectivity is returned when a connection to the database (or the driver needed to reach it) is unavailable.
type ErrConnectivity struct {
	Target string // e.g., the database family or driver name
	Cause  error
}

func (err *ErrConnectivity) Error() string {
	if err.Cause == nil {
		return fmt.Sprintf("cannot connect to %s", err.Target)
	}
	return fmt.Sprintf("cannot connect to %s: %s", err.Target, err.Cause)
}

func (err *ErrConnectivity) Unwrap() error {
	return err.Cause
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "warehouses"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	}
	return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
}

// ErrCancelled is returned by long-running operations that stopped because they were asked to.
type ErrCancelled struct {
	Operation string
}

func (err *ErrCancelled) Error() string {
	return fmt.Sprintf("%s cancelled", err.Operation)
}

// IsNoData returns true if err, or any error it wraps, is an ErrNoData.
func IsNoData(err error) bool {
	var e *ErrNoData
	return errors.As(err, &e)
}

// IsCancelled returns true if err, or any error it wraps, is an ErrCancelled.
func IsCancelled(err error) bool {
	var e *ErrCancelled
	return errors.As(err, &e)
}

// IsIllegalState returns true if err, or any error it wraps, is an ErrIllegalState.
func IsIllegalState(err error) bool {
	var e *ErrIllegalState
	return errors.As(err, &e)
}
