// Copyright 2024 The op-program Authors
// This file is part of op-program.
//
// op-program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// op-program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with op-program. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline-facing error the way the driver needs to act
// on it. It is the single authority the pipeline stages use to report
// failures; nothing above the pipeline recovers an error silently.
type Kind int

const (
	// Temporary means the step made no forward progress but may succeed
	// later (Eof, not-enough-data, an expected-but-absent preimage).
	Temporary Kind = iota
	// Reset means the pipeline's invariants no longer hold relative to
	// the driver's safe head (reorg, hardfork boundary, channel-bank
	// inconsistency) and a Reset/Activation signal is required.
	Reset
	// Critical means undefined state or a provable protocol violation.
	// The program must abort with a nonzero fault code.
	Critical
)

func (k Kind) String() string {
	switch k {
	case Temporary:
		return "temporary"
	case Reset:
		return "reset"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// PipelineError pairs an underlying cause with its Kind so the driver can
// branch on classification without string-matching.
type PipelineError struct {
	kind Kind
	err  error
}

func NewTemporaryError(err error) error { return &PipelineError{kind: Temporary, err: err} }
func NewResetError(err error) error     { return &PipelineError{kind: Reset, err: err} }
func NewCriticalError(err error) error  { return &PipelineError{kind: Critical, err: err} }

func (e *PipelineError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *PipelineError) Unwrap() error { return e.err }
func (e *PipelineError) Kind() Kind    { return e.kind }

// Classify extracts the Kind from err, defaulting to Critical for any
// error that was not explicitly classified: unclassified errors are
// assumed to indicate undefined behavior rather than something safe to
// retry or reset past.
func Classify(err error) Kind {
	if err == nil {
		return -1
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.kind
	}
	return Critical
}

// IsTemporary reports whether err is classified Temporary.
func IsTemporary(err error) bool { return err != nil && Classify(err) == Temporary }

// IsReset reports whether err is classified Reset.
func IsReset(err error) bool { return err != nil && Classify(err) == Reset }

// IsCritical reports whether err is classified Critical.
func IsCritical(err error) bool { return err != nil && Classify(err) == Critical }

// EOF is the canonical Temporary error a stage returns when it has no
// more input to produce from right now but isn't necessarily done.
var EOF = NewTemporaryError(errors.New("eof"))

// ErrNotEnoughData signals a channel/frame-level stage that more input is
// required before an item can be produced.
var ErrNotEnoughData = NewTemporaryError(errors.New("not enough data"))
