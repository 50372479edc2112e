// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/utils/logging"
)

var (
	_ Clock = (*BlockClock)(nil)

	heightPrefix = []byte("height")
	heightKey    = []byte("current")

	ErrHeightDecrease = errors.New("block height can't decrease")
	errHeightOverflow = errors.New("block height overflow")
)

// Clock reports the current block height. Heights never decrease.
type Clock interface {
	Height() uint64
}

// BlockClock is a block height counter that survives restarts.
type BlockClock struct {
	log logging.Logger

	lock     sync.RWMutex
	height   uint64
	heightDB database.Database
}

func NewBlockClock(db database.Database, log logging.Logger) (*BlockClock, error) {
	heightDB := prefixdb.New(heightPrefix, db)
	height, err := database.GetUInt64(heightDB, heightKey)
	if err == database.ErrNotFound {
		height = 0
	} else if err != nil {
		return nil, fmt.Errorf("failed to load block height: %w", err)
	}
	return &BlockClock{
		log:      log,
		height:   height,
		heightDB: heightDB,
	}, nil
}

func (c *BlockClock) Height() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.height
}

// Advance increments the height by one and returns the new height.
func (c *BlockClock) Advance() (uint64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.height == ^uint64(0) {
		return c.height, errHeightOverflow
	}
	if err := database.PutUInt64(c.heightDB, heightKey, c.height+1); err != nil {
		return c.height, err
	}
	c.height++
	return c.height, nil
}

// Set moves the clock forward to [height].
func (c *BlockClock) Set(height uint64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if height < c.height {
		return fmt.Errorf("%w: %d < %d", ErrHeightDecrease, height, c.height)
	}
	if err := database.PutUInt64(c.heightDB, heightKey, height); err != nil {
		return err
	}
	c.height = height
	return nil
}

// Run advances the clock every [interval] until [ctx] is done. [onAdvance],
// if not nil, is called with every new height.
func (c *BlockClock) Run(ctx context.Context, interval time.Duration, onAdvance func(uint64)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			height, err := c.Advance()
			if err != nil {
				c.log.Error("failed to advance block height",
					zap.Uint64("height", height),
					zap.Error(err),
				)
				return err
			}
			c.log.Verbo("advanced block height",
				zap.Uint64("height", height),
			)
			if onAdvance != nil {
				onAdvance(height)
			}
		}
	}
}
