// Package retry provides a bounded retry combinator with a fixed delay.
package retry

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// Policy describes how many times an operation is attempted and how long to
// wait between attempts. The zero value runs the operation once.
type Policy struct {
	Attempts int
	Delay    time.Duration

	// Sleep replaces time.Sleep between attempts. Tests inject a recorder.
	Sleep func(time.Duration)

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, next time.Duration)

	// Terminal builds the error returned once every attempt has failed.
	// When nil the last attempt's error is returned unchanged.
	Terminal func(attempts int, last error) error
}

// Permanent wraps err so that Do stops immediately and returns err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, or the policy is
// exhausted. It returns the number of attempts made.
func Do(p Policy, op func(attempt int) error) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	b := p.backOff()
	b.Reset()

	for attempt := 1; ; attempt++ {
		err := op(attempt)
		if err == nil {
			return attempt, nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return attempt, perm.Err
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			if p.Terminal != nil {
				return attempt, p.Terminal(attempt, err)
			}
			return attempt, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, next)
		}
		sleep(next)
	}
}

// backOff maps the policy onto a backoff schedule. WithMaxRetries treats 0 as
// unlimited, so single-attempt policies use StopBackOff instead.
func (p Policy) backOff() backoff.BackOff {
	if p.Attempts <= 1 {
		return &backoff.StopBackOff{}
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.Attempts-1))
}
