// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/formatting/address"
)

var unparsedLocalConfig = UnparsedConfig{
	NetworkID: constants.LocalID,
	Allocations: []UnparsedAllocation{
		{
			Address: "D-local18jma8ppw3nhx5r4ap8clazz0dps7rv5u00z96u",
			Amount:  300_000_000_000_000_000,
		},
	},
	Message: "camino dao local genesis",
}

type UnparsedAllocation struct {
	Address string `json:"address" yaml:"address" mapstructure:"address"`
	Amount  uint64 `json:"amount" yaml:"amount" mapstructure:"amount"`
}

func (ua UnparsedAllocation) Parse() (Allocation, error) {
	a := Allocation{Amount: ua.Amount}
	_, _, addrBytes, err := address.Parse(ua.Address)
	if err != nil {
		return a, err
	}
	a.Address, err = ids.ToShortID(addrBytes)
	return a, err
}

// UnparsedConfig is the human readable form of the genesis, addresses are
// bech32 encoded.
type UnparsedConfig struct {
	NetworkID   uint32               `json:"networkID" yaml:"networkID" mapstructure:"networkID"`
	Allocations []UnparsedAllocation `json:"allocations" yaml:"allocations" mapstructure:"allocations"`
	Message     string               `json:"message" yaml:"message" mapstructure:"message"`
}

func (uc UnparsedConfig) Parse() (Config, error) {
	c := Config{
		NetworkID:   uc.NetworkID,
		Allocations: make([]Allocation, len(uc.Allocations)),
		Message:     uc.Message,
	}
	for i, ua := range uc.Allocations {
		a, err := ua.Parse()
		if err != nil {
			return c, err
		}
		c.Allocations[i] = a
	}
	return c, nil
}
