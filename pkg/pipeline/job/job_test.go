// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestController() *Controller {
	return New(nil, nil, nil, nil, nil, nil, Paths{}, false, false)
}

func TestApproveFailsWhenJobNotAwaitingReview(t *testing.T) {
	c := newTestController()
	err := c.Approve("unknown-job")
	assert.Error(t, err)
}

func TestCancelFailsWhenJobNotRunning(t *testing.T) {
	c := newTestController()
	err := c.Cancel("unknown-job")
	assert.Error(t, err)
}

func TestApproveUnblocksRegisteredChannel(t *testing.T) {
	c := newTestController()
	ch := make(chan struct{})
	c.mu.Lock()
	c.approves["job-1"] = ch
	c.mu.Unlock()

	assert.NoError(t, c.Approve("job-1"))
	_, open := <-ch
	assert.False(t, open, "channel should be closed after Approve")
}

func TestCancelInvokesRegisteredCancelFunc(t *testing.T) {
	c := newTestController()
	called := false
	c.mu.Lock()
	c.cancels["job-1"] = func() { called = true }
	c.mu.Unlock()

	assert.NoError(t, c.Cancel("job-1"))
	assert.True(t, called)
}
