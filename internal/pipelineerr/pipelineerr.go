// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipelineerr defines the error taxonomy shared across every
// pipeline phase so that per-item failures, retry classification, and
// phase-failure policy all key off the same set of kinds.
package pipelineerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and retry purposes.
type Kind string

const (
	KindIO                  Kind = "io"
	KindStore               Kind = "store"
	KindNetwork             Kind = "network"
	KindRateLimit           Kind = "rate_limit"
	KindUnavailable         Kind = "unavailable"
	KindUnsupported         Kind = "unsupported"
	KindCorrupt             Kind = "corrupt"
	KindMalformed           Kind = "malformed"
	KindPlanningIncomplete  Kind = "planning_incomplete"
	KindValidation          Kind = "validation"
	KindConflict            Kind = "conflict"
	KindCancelled           Kind = "cancelled"
	KindFatal               Kind = "fatal"
)

// Error wraps an inner error with a classification Kind.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// New wraps err with kind and an operation label describing where it
// originated (e.g. "indexer.extract").
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, err: err}
}

// Of returns the Kind of err, or KindFatal if err does not carry one.
func Of(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindFatal
}

// Transient reports whether kind is eligible for retry per spec: network,
// rate_limit, and unavailable are transient; everything else is fatal for
// retry purposes (the caller may still have its own fallback logic).
func Transient(kind Kind) bool {
	switch kind {
	case KindNetwork, KindRateLimit, KindUnavailable:
		return true
	default:
		return false
	}
}

// Classify is the default classify_error function used by the retry
// wrapper when a caller doesn't supply a more specific one: it inspects
// the error chain for a *Error and falls back to treating unknown errors
// as fatal (not retried), matching the "default to no free retries"
// posture for errors the pipeline doesn't recognize.
func Classify(err error) Kind {
	return Of(err)
}
