package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
	"github.com/stretchr/testify/require"
)

var (
	okCall   = func() error { return nil }
	errCall  = errors.New("broker down")
	failCall = func() error { return errCall }
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	const timeout = 50 * time.Millisecond
	cb := circuit_breaker.New(10, timeout, 0.3, 2)

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(okCall))
	}
	require.Equal(t, circuit_breaker.Closed, cb.State())

	require.ErrorIs(t, cb.Call(failCall), errCall)
	require.ErrorIs(t, cb.Call(failCall), errCall)
	require.Equal(t, circuit_breaker.Closed, cb.State())
	require.ErrorIs(t, cb.Call(failCall), errCall)
	require.Equal(t, circuit_breaker.Open, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.False(t, called)

	time.Sleep(2 * timeout)
	require.NoError(t, cb.Call(okCall))
	require.Equal(t, circuit_breaker.HalfOpen, cb.State())
	require.NoError(t, cb.Call(okCall))
	require.Equal(t, circuit_breaker.Closed, cb.State())
}

func Test_circuitBreaker_HalfOpenFailure(t *testing.T) {
	t.Parallel()
	const timeout = 20 * time.Millisecond
	cb := circuit_breaker.New(2, timeout, 0.5, 3)

	require.Error(t, cb.Call(failCall))
	require.Equal(t, circuit_breaker.Open, cb.State())

	time.Sleep(2 * timeout)
	require.Error(t, cb.Call(failCall))
	require.Equal(t, circuit_breaker.Open, cb.State())
	require.ErrorIs(t, cb.Call(okCall), circuit_breaker.ErrOpenCB)

	cb.Reset()
	require.Equal(t, circuit_breaker.Closed, cb.State())
	require.NoError(t, cb.Call(okCall))
}
