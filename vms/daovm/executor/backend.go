// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/vms/daovm/clock"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/events"
	"github.com/chain4travel/caminodao/vms/daovm/locked"
	"github.com/chain4travel/caminodao/vms/daovm/metrics"
	"github.com/chain4travel/caminodao/vms/daovm/state"
)

// Backend holds everything the engine depends on.
// Currency and Balances must write to and read from the versiondb backing
// State, so deposit changes are committed and aborted with the state.
type Backend struct {
	Config    *dao.Config
	State     state.State
	Clock     clock.Clock
	Currency  locked.Currency
	Balances  locked.Balances
	Publisher events.Publisher
	Metrics   metrics.Metrics
	Log       logging.Logger
}
