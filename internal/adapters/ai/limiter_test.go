package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedAppliesTimeout(t *testing.T) {
	slow := CompleterFunc(func(ctx context.Context, req CompletionRequest) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(2 * time.Second):
			return "late", nil
		}
	})

	limited := NewRateLimited(slow, 0, 50*time.Millisecond)

	start := time.Now()
	_, err := limited.Complete(context.Background(), CompletionRequest{User: "u"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimitedPassesThrough(t *testing.T) {
	var got CompletionRequest
	echo := CompleterFunc(func(ctx context.Context, req CompletionRequest) (string, error) {
		got = req
		return "ok", nil
	})

	limited := NewRateLimited(echo, 600, time.Second)
	for i := 0; i < 3; i++ {
		out, err := limited.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	}
	assert.Equal(t, "u", got.User)
	assert.Equal(t, "func", limited.Name())
}

func TestRateLimitedHonoursCancelledContext(t *testing.T) {
	called := false
	next := CompleterFunc(func(ctx context.Context, req CompletionRequest) (string, error) {
		called = true
		return "ok", nil
	})

	// One request per minute with burst 1: the second call must wait.
	limited := NewRateLimited(next, 1, 0)
	_, err := limited.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called = false
	_, err = limited.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.False(t, called)
}
