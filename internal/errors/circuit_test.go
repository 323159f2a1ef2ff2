package errors

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	// Given: a circuit breaker with max 3 failures
	cb := NewCircuitBreaker("retrieval",
		WithMaxFailures(3),
		WithResetTimeout(1*time.Second),
	)

	// When: recording 3 failures
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error {
			return errors.New("error")
		})
	}

	// Then: circuit is open
	assert.Equal(t, StateOpen, cb.State())

	// And: requests are rejected
	err := cb.Execute(func() error {
		return nil // Would succeed if called
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	// Given: an open circuit breaker with a short reset timeout
	cb := NewCircuitBreaker("retrieval",
		WithMaxFailures(2),
		WithResetTimeout(50*time.Millisecond),
	)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error {
			return errors.New("error")
		})
	}
	require.Equal(t, StateOpen, cb.State())

	// When: waiting past the reset timeout
	time.Sleep(60 * time.Millisecond)

	// Then: the next success closes the circuit
	err := cb.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("retrieval",
		WithMaxFailures(1),
		WithResetTimeout(30*time.Millisecond),
	)

	_ = cb.Execute(func() error { return errors.New("down") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)

	// Probe fails, circuit re-opens
	err := cb.Execute(func() error { return errors.New("still down") })
	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("retrieval", WithMaxFailures(3))

	_ = cb.Execute(func() error { return errors.New("one") })
	_ = cb.Execute(func() error { return errors.New("two") })
	assert.Equal(t, 2, cb.Failures())

	_ = cb.Execute(func() error { return nil })
	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitExecute_FallbackWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("retrieval",
		WithMaxFailures(1),
		WithResetTimeout(1*time.Minute),
	)

	_ = cb.Execute(func() error { return errors.New("down") })
	require.Equal(t, StateOpen, cb.State())

	called := false
	result, err := CircuitExecute(cb,
		func() ([]string, error) {
			called = true
			return []string{"live"}, nil
		},
		func() ([]string, error) {
			return []string{}, nil
		},
	)

	require.NoError(t, err)
	assert.False(t, called, "open circuit must not invoke the primary function")
	assert.Empty(t, result)
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker("retrieval", WithMaxFailures(100))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				_ = cb.Execute(func() error { return nil })
			} else {
				_ = cb.Execute(func() error { return errors.New("flaky") })
			}
		}(i)
	}
	wg.Wait()

	// No race, state remains valid
	assert.Contains(t, []State{StateClosed, StateOpen, StateHalfOpen}, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
