// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package locked

import (
	"errors"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient free balance")
	ErrInsufficientReserved = errors.New("insufficient reserved balance")
	ErrBalanceOverflow      = errors.New("balance overflow")
)

// Currency moves funds between the free and the reserved balance of an
// account. A failed call applies nothing.
type Currency interface {
	Reserve(addr ids.ShortID, amount uint64) error
	Unreserve(addr ids.ShortID, amount uint64) error
}

type Balances interface {
	GetBalance(addr ids.ShortID) (Balance, error)
}
