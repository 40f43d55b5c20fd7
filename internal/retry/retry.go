// Copyright 2026 Archivist Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package retry implements the capability wrapper named in the pipeline's
// design notes: (op, max_attempts, base, cap, jitter, classify_error).
// Every LLM call goes through Do; store operations are not retried.
package retry

import (
	"context"
	"log/slog"
	"time"

	backoffpkg "github.com/cenkalti/backoff/v4"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// Policy configures one capability wrapper instance.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
	// ClassifyError maps an error to a Kind; defaults to pipelineerr.Classify.
	ClassifyError func(error) pipelineerr.Kind
}

// DefaultPolicy mirrors the teacher's RetryConfig defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   5,
		Base:          250 * time.Millisecond,
		Cap:           30 * time.Second,
		ClassifyError: pipelineerr.Classify,
	}
}

// Op is a unit of work subject to retry.
type Op func(ctx context.Context) error

// Do runs op, retrying transient failures (network, rate_limit,
// unavailable) with exponential backoff and jitter up to p.MaxAttempts.
// Non-transient kinds (malformed, validation, ...) return immediately.
// label is used only for logging.
func Do(ctx context.Context, logger *slog.Logger, p Policy, label string, op Op) error {
	if logger == nil {
		logger = slog.Default()
	}
	classify := p.ClassifyError
	if classify == nil {
		classify = pipelineerr.Classify
	}

	bo := backoffpkg.NewExponentialBackOff()
	bo.InitialInterval = p.Base
	bo.MaxInterval = p.Cap
	bo.MaxElapsedTime = 0 // bounded by MaxAttempts instead
	bo.Reset()

	var lastErr error
	attempts := 0
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempts < maxAttempts {
		attempts++
		if ctx.Err() != nil {
			return pipelineerr.New(pipelineerr.KindCancelled, label, ctx.Err())
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := classify(err)
		if kind == pipelineerr.KindCancelled || !pipelineerr.Transient(kind) {
			return err
		}
		if attempts >= maxAttempts {
			break
		}

		wait := bo.NextBackOff()
		if wait == backoffpkg.Stop {
			break
		}
		logger.Warn("retry.backoff",
			"op", label,
			"attempt", attempts,
			"kind", string(kind),
			"wait", wait,
			"err", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return pipelineerr.New(pipelineerr.KindCancelled, label, ctx.Err())
		case <-timer.C:
		}
	}

	return pipelineerr.New(pipelineerr.KindUnavailable, label, lastErr)
}
