package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitIssuesToken(t *testing.T) {
	jar := NewTokenJar(5, 10)
	defer jar.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, jar.Wait(ctx))

	tokens, maxTokens, _, _ := jar.Stats()
	assert.Equal(t, 4, tokens) // started with burst/2, one consumed
	assert.Equal(t, 10, maxTokens)
}

func TestWaitHonorsCancellation(t *testing.T) {
	// burst 1 means zero initial tokens and a slow refill.
	jar := NewTokenJar(1, 1)
	defer jar.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := jar.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefillCapsAtBurstLimit(t *testing.T) {
	jar := NewTokenJar(10, 5)
	defer jar.Stop()

	assert.Eventually(t, func() bool {
		tokens, _, _, _ := jar.Stats()
		return tokens == 5
	}, 2*time.Second, 10*time.Millisecond)
}
