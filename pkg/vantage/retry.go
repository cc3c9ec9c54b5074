// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"errors"
	"time"
)

// sleepFn is swapped out in tests.
var sleepFn = time.Sleep

// retryPolicy runs a fallible operation a bounded number of times with a
// fixed delay between attempts. The console's typical failure mode is
// transient byte-framing drift, so there is no backoff growth or jitter.
type retryPolicy struct {
	Tries int
	Delay time.Duration
	On    []error // retryable sentinels; empty means every error retries
}

// Do runs fn until it succeeds, a non-retryable error occurs, or the attempt
// budget is exhausted. The error from the final attempt is returned.
func (p retryPolicy) Do(fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= p.Tries || !p.retryable(err) {
			return err
		}
		logger.Debug().Err(err).Int("attempt", attempt).Msg("retrying")
		sleepFn(p.Delay)
	}
}

func (p retryPolicy) retryable(err error) bool {
	if len(p.On) == 0 {
		return true
	}
	for _, target := range p.On {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
