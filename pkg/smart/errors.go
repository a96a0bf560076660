// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is(err, ErrFailed) to classify an error returned by this package.
var (
	ErrTechUnavail     = errors.New("technology unavailable")
	ErrFailed          = errors.New("failed")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error is a classified failure of a decode or device operation.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failed(op string, err error) error {
	return &Error{Kind: ErrFailed, Op: op, Err: err}
}

func failedf(op, format string, args ...any) error {
	return &Error{Kind: ErrFailed, Op: op, Err: fmt.Errorf(format, args...)}
}

func invalidArgf(op, format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

func techUnavailf(op, format string, args ...any) error {
	return &Error{Kind: ErrTechUnavail, Op: op, Err: fmt.Errorf(format, args...)}
}

// classify keeps an already classified error and marks anything else as failed.
func classify(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return failed(op, err)
}
