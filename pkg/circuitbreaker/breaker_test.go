package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")
var errBenign = errors.New("benign")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[int](Settings{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errBoom })
		require.ErrorIs(t, err, errBoom)
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBreaker_IsSuccessfulIgnoresBenignErrors(t *testing.T) {
	cb := New[int](Settings{
		Name:                "test",
		ConsecutiveFailures: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errBenign)
		},
	})

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errBenign })
		require.ErrorIs(t, err, errBenign)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
