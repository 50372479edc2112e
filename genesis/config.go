// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/set"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/chain4travel/caminodao/api"
)

var (
	errDuplicateAllocation = errors.New("duplicate allocation")
	errZeroAllocation      = errors.New("allocation amount is zero")
	errAllocationOverflow  = errors.New("total allocation overflows")
	errNetworkIDMismatch   = errors.New("genesis network ID mismatch")

	// LocalConfig funds the well known local test key.
	LocalConfig Config
)

func init() {
	var err error
	LocalConfig, err = unparsedLocalConfig.Parse()
	if err != nil {
		panic(err)
	}
}

// Allocation credits [Amount] to the free balance of [Address] at genesis.
type Allocation struct {
	Address ids.ShortID
	Amount  uint64
}

func (a Allocation) Unparse(networkID uint32) (UnparsedAllocation, error) {
	addr, err := api.FormatAddress(networkID, a.Address)
	return UnparsedAllocation{
		Address: addr,
		Amount:  a.Amount,
	}, err
}

// Config is the initial state of the governance chain.
type Config struct {
	NetworkID   uint32
	Allocations []Allocation
	Message     string
}

func (c Config) Unparse() (UnparsedConfig, error) {
	uc := UnparsedConfig{
		NetworkID:   c.NetworkID,
		Allocations: make([]UnparsedAllocation, len(c.Allocations)),
		Message:     c.Message,
	}
	for i, a := range c.Allocations {
		ua, err := a.Unparse(c.NetworkID)
		if err != nil {
			return uc, err
		}
		uc.Allocations[i] = ua
	}
	return uc, nil
}

// TotalAllocated returns the sum of all allocation amounts.
func (c Config) TotalAllocated() (uint64, error) {
	total := uint64(0)
	for _, a := range c.Allocations {
		newTotal, err := safemath.Add64(total, a.Amount)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", errAllocationOverflow, a.Address)
		}
		total = newTotal
	}
	return total, nil
}

// Validate checks that the config can be applied to a network with
// [networkID].
func (c Config) Validate(networkID uint32) error {
	if c.NetworkID != networkID {
		return fmt.Errorf("%w: expected %d, got %d", errNetworkIDMismatch, networkID, c.NetworkID)
	}

	addrs := set.NewSet[ids.ShortID](len(c.Allocations))
	for _, a := range c.Allocations {
		if a.Amount == 0 {
			return fmt.Errorf("%w: %s", errZeroAllocation, a.Address)
		}
		if addrs.Contains(a.Address) {
			return fmt.Errorf("%w: %s", errDuplicateAllocation, a.Address)
		}
		addrs.Add(a.Address)
	}

	_, err := c.TotalAllocated()
	return err
}

// GetConfig returns the built-in genesis for [networkID], falling back to the
// local one.
func GetConfig(networkID uint32) *Config {
	config := LocalConfig
	config.NetworkID = networkID
	if networkID != constants.LocalID {
		config.Allocations = nil
	}
	return &config
}
