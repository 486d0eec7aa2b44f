package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) { r.delays = append(r.delays, d) }

func TestDo_SucceedsFirstAttemptWithoutDelay(t *testing.T) {
	rec := &sleepRecorder{}
	attempts, err := Do(Policy{Attempts: 3, Delay: 2 * time.Second, Sleep: rec.sleep}, func(int) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, rec.delays)
}

func TestDo_SucceedsOnThirdAttempt(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0
	attempts, err := Do(Policy{Attempts: 3, Delay: 2 * time.Second, Sleep: rec.sleep}, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.delays)
}

func TestDo_ExhaustedReturnsTerminalError(t *testing.T) {
	rec := &sleepRecorder{}
	last := errors.New("connection refused")
	attempts, err := Do(Policy{
		Attempts: 3,
		Delay:    2 * time.Second,
		Sleep:    rec.sleep,
		Terminal: func(n int, err error) error { return fmt.Errorf("gave up after %d: %w", n, err) },
	}, func(int) error {
		return last
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, "gave up after 3: connection refused", err.Error())
	assert.Len(t, rec.delays, 2, "no delay after the final attempt")
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	rec := &sleepRecorder{}
	bad := errors.New("malformed url")
	attempts, err := Do(Policy{Attempts: 3, Delay: time.Second, Sleep: rec.sleep}, func(int) error {
		return Permanent(bad)
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, bad, err)
	assert.Empty(t, rec.delays)
}

func TestDo_SingleAttemptPolicy(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0
	_, err := Do(Policy{Sleep: rec.sleep}, func(int) error {
		calls++
		return errors.New("fail")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var seen []int
	_, _ = Do(Policy{
		Attempts: 3,
		Delay:    time.Millisecond,
		Sleep:    func(time.Duration) {},
		OnRetry:  func(attempt int, _ error, _ time.Duration) { seen = append(seen, attempt) },
	}, func(int) error {
		return errors.New("fail")
	})

	assert.Equal(t, []int{1, 2}, seen)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
