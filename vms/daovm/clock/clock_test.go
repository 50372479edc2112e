// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBlockClock(t *testing.T) {
	require := require.New(t)
	db := memdb.New()

	c, err := NewBlockClock(db, logging.NoLog{})
	require.NoError(err)
	require.Zero(c.Height())

	height, err := c.Advance()
	require.NoError(err)
	require.Equal(uint64(1), height)

	require.NoError(c.Set(10))
	require.ErrorIs(c.Set(9), ErrHeightDecrease)
	require.Equal(uint64(10), c.Height())

	c, err = NewBlockClock(db, logging.NoLog{})
	require.NoError(err)
	require.Equal(uint64(10), c.Height())
}

func TestBlockClockRun(t *testing.T) {
	require := require.New(t)

	c, err := NewBlockClock(memdb.New(), logging.NoLog{})
	require.NoError(err)

	var observed atomic.Uint64
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- c.Run(ctx, time.Millisecond, observed.Store)
	}()

	require.Eventually(func() bool {
		return observed.Load() >= 3
	}, 5*time.Second, time.Millisecond)

	cancel()
	require.NoError(<-done)
	require.Equal(c.Height(), observed.Load())
}
