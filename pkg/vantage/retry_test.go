// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubSleep replaces sleepFn with a recorder for the duration of a test.
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleepFn
	sleepFn = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleepFn = orig })
	return &slept
}

func TestRetryPolicy_SucceedsFirstTry(t *testing.T) {
	slept := stubSleep(t)
	calls := 0
	p := retryPolicy{Tries: 3, Delay: time.Second, On: []error{ErrBadAck}}
	err := p.Do(func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no sleeps", *slept)
	}
}

func TestRetryPolicy_RetriesThenSucceeds(t *testing.T) {
	slept := stubSleep(t)
	calls := 0
	p := retryPolicy{Tries: 3, Delay: 500 * time.Millisecond, On: []error{ErrBadAck}}
	err := p.Do(func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: attempt %d", ErrBadAck, calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestRetryPolicy_ExhaustsBudget(t *testing.T) {
	slept := stubSleep(t)
	calls := 0
	p := retryPolicy{Tries: 3, Delay: time.Second, On: []error{ErrBadCRC}}
	err := p.Do(func() error {
		calls++
		return fmt.Errorf("%w: attempt %d", ErrBadCRC, calls)
	})
	if !errors.Is(err, ErrBadCRC) {
		t.Errorf("error = %v, want ErrBadCRC", err)
	}
	// The error carried back is the final attempt's.
	if err == nil || err.Error() != "vantage: bad crc: attempt 3" {
		t.Errorf("error = %v, want final attempt's error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(*slept) != 2 {
		t.Errorf("sleeps = %d, want 2", len(*slept))
	}
}

func TestRetryPolicy_NonRetryableShortCircuits(t *testing.T) {
	slept := stubSleep(t)
	calls := 0
	p := retryPolicy{Tries: 3, Delay: time.Second, On: []error{ErrBadAck}}
	err := p.Do(func() error {
		calls++
		return ErrNoDevice
	})
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("error = %v, want ErrNoDevice", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no sleeps", *slept)
	}
}

func TestRetryPolicy_EmptyOnRetriesEverything(t *testing.T) {
	stubSleep(t)
	calls := 0
	p := retryPolicy{Tries: 2, Delay: time.Millisecond}
	err := p.Do(func() error {
		calls++
		return errors.New("anything")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
