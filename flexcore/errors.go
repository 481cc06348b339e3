// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"errors"
	"fmt"
)

// Kind classifies the fatal errors a run can produce.
type Kind int

const (
	// Other is an error not produced by this package, e.g. an I/O failure.
	Other Kind = iota
	// Config is an invalid option other than the cutoff.
	Config
	// DataShape means the alignment is empty, has unequal sequence lengths,
	// or has missing or duplicated genome ids.
	DataShape
	// InvalidCutoff means the percent-core cutoff is outside [0, 100].
	InvalidCutoff
	// InsufficientPopulation means fewer than two genomes were available for
	// pairwise distances.
	InsufficientPopulation
	// Integrity means a materialized core sequence disagrees with its mask.
	Integrity
	// WorkerFailure means a job of a parallel phase failed, aborting the
	// phase.
	WorkerFailure
)

var kindNames = [...]string{
	Other:                  "error",
	Config:                 "invalid configuration",
	DataShape:              "malformed alignment",
	InvalidCutoff:          "invalid cutoff",
	InsufficientPopulation: "insufficient population",
	Integrity:              "integrity violation",
	WorkerFailure:          "worker failure",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is the error type returned for every failure in the Kind taxonomy.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsKind reports whether err has the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// workerFailure wraps an error raised inside a parallel phase.  Errors that
// are already classified keep their kind.
func workerFailure(phase string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: WorkerFailure, Err: fmt.Errorf("%s: %w", phase, err)}
}
