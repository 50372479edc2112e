// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package locked

import (
	"fmt"
	"sync"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var (
	_ Currency = (*Ledger)(nil)
	_ Balances = (*Ledger)(nil)

	balancePrefix = []byte("balance")
)

type Balance struct {
	Free     uint64 `serialize:"true" json:"free"`
	Reserved uint64 `serialize:"true" json:"reserved"`
}

// Ledger is a minimal account ledger with free and reserved balances.
// Writes go to the database the ledger was created on, so a ledger on a
// versiondb is only persisted by that versiondb's commit.
type Ledger struct {
	lock      sync.RWMutex
	balanceDB database.Database
}

func NewLedger(db database.Database) *Ledger {
	return &Ledger{
		balanceDB: prefixdb.New(balancePrefix, db),
	}
}

func (l *Ledger) GetBalance(addr ids.ShortID) (Balance, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.getBalance(addr)
}

// Fund adds [amount] to the free balance of [addr].
func (l *Ledger) Fund(addr ids.ShortID, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	balance, err := l.getBalance(addr)
	if err != nil {
		return err
	}
	free, err := safemath.Add64(balance.Free, amount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	balance.Free = free
	return l.putBalance(addr, balance)
}

// Allocate sets the free balance of [addr] to [amount] and clears its
// reserved balance. Replaying it yields the same balance.
func (l *Ledger) Allocate(addr ids.ShortID, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.putBalance(addr, Balance{Free: amount})
}

func (l *Ledger) Reserve(addr ids.ShortID, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	balance, err := l.getBalance(addr)
	if err != nil {
		return err
	}
	if balance.Free < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, addr, balance.Free, amount)
	}
	reserved, err := safemath.Add64(balance.Reserved, amount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	balance.Free -= amount
	balance.Reserved = reserved
	return l.putBalance(addr, balance)
}

func (l *Ledger) Unreserve(addr ids.ShortID, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	balance, err := l.getBalance(addr)
	if err != nil {
		return err
	}
	if balance.Reserved < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientReserved, addr, balance.Reserved, amount)
	}
	free, err := safemath.Add64(balance.Free, amount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	balance.Reserved -= amount
	balance.Free = free
	return l.putBalance(addr, balance)
}

func (l *Ledger) getBalance(addr ids.ShortID) (Balance, error) {
	balanceBytes, err := l.balanceDB.Get(addr[:])
	if err == database.ErrNotFound {
		return Balance{}, nil
	} else if err != nil {
		return Balance{}, err
	}
	balance := Balance{}
	if _, err := dao.Codec.Unmarshal(balanceBytes, &balance); err != nil {
		return Balance{}, fmt.Errorf("failed to unmarshal balance of %s: %w", addr, err)
	}
	return balance, nil
}

func (l *Ledger) putBalance(addr ids.ShortID, balance Balance) error {
	balanceBytes, err := dao.Codec.Marshal(dao.CodecVersion, &balance)
	if err != nil {
		return fmt.Errorf("failed to marshal balance of %s: %w", addr, err)
	}
	return l.balanceDB.Put(addr[:], balanceBytes)
}

func (l *Ledger) Close() error {
	return l.balanceDB.Close()
}
