// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package daovm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/avalanchego/version"

	"github.com/chain4travel/caminodao/genesis"
	"github.com/chain4travel/caminodao/vms/daovm/clock"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/events"
	"github.com/chain4travel/caminodao/vms/daovm/executor"
	"github.com/chain4travel/caminodao/vms/daovm/locked"
	"github.com/chain4travel/caminodao/vms/daovm/metrics"
	"github.com/chain4travel/caminodao/vms/daovm/state"
)

const (
	Name = "dao"

	metricsNamespace = "dao"
)

var (
	Version = &version.Semantic{
		Major: 0,
		Minor: 1,
		Patch: 0,
	}

	errNotInitialized = errors.New("vm not initialized")
)

// Config is the runtime configuration of the vm.
type Config struct {
	dao.Config

	NetworkID uint32
	// Height the block clock starts from on a fresh database
	InitialHeight uint64
}

// VM wires the governance engine to its storage, currency, clock and event
// sinks.
type VM struct {
	Config

	log     logging.Logger
	metrics metrics.Metrics

	// State of this VM
	State  state.State
	ledger *locked.Ledger
	clock  *clock.BlockClock
	bus    *events.Bus
	engine *executor.Engine
}

// Initialize this vm.
// [db] is shared by the state, the ledger and the block clock, each under
// its own prefix. The state and the ledger share one versiondb, so balance
// changes are committed atomically with the proposals they belong to. [publishers] receive the events after the in-process bus.
func (vm *VM) Initialize(
	_ context.Context,
	log logging.Logger,
	db database.Database,
	genesisBytes []byte,
	registerer prometheus.Registerer,
	publishers ...events.Publisher,
) error {
	log.Info("initializing dao vm",
		zap.Stringer("version", Version),
		zap.Uint32("networkID", vm.NetworkID),
	)

	if err := vm.Config.Config.Verify(); err != nil {
		return fmt.Errorf("invalid dao config: %w", err)
	}
	vm.log = log

	var err error
	vm.metrics, err = metrics.New(metricsNamespace, registerer)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	baseDB := versiondb.New(db)
	vm.State, err = state.NewState(baseDB, registerer)
	if err != nil {
		return err
	}
	vm.ledger = locked.NewLedger(baseDB)
	vm.clock, err = clock.NewBlockClock(db, log)
	if err != nil {
		return err
	}

	if err := vm.initGenesis(genesisBytes); err != nil {
		vm.State.Abort()
		return err
	}

	vm.bus = events.NewBus(log)
	vm.engine = executor.NewEngine(&executor.Backend{
		Config:    &vm.Config.Config,
		State:     vm.State,
		Clock:     vm.clock,
		Currency:  vm.ledger,
		Balances:  vm.ledger,
		Publisher: append(events.Publishers{vm.bus}, publishers...),
		Metrics:   vm.metrics,
		Log:       log,
	})

	vm.metrics.SetActiveProposals(vm.State.NumActiveProposals())
	vm.metrics.SetHeight(vm.clock.Height())

	log.Info("initialized dao vm",
		zap.Uint64("height", vm.clock.Height()),
		zap.Uint64("lastProposalID", vm.State.GetLastProposalID()),
		zap.Uint64("lastEventSeq", vm.State.GetLastEventSeq()),
	)
	return nil
}

// Initializes Genesis if required
func (vm *VM) initGenesis(genesisBytes []byte) error {
	stateInitialized, err := vm.State.IsInitialized()
	if err != nil {
		return err
	}

	// if state is already initialized, skip init genesis.
	if stateInitialized {
		return nil
	}

	config, err := genesis.FromJSON(vm.NetworkID, genesisBytes)
	if err != nil {
		return err
	}

	// Allocations are committed together with the initialized flag.
	for _, allocation := range config.Allocations {
		if err := vm.ledger.Allocate(allocation.Address, allocation.Amount); err != nil {
			return fmt.Errorf("failed to allocate genesis funds to %s: %w", allocation.Address, err)
		}
	}

	initialHeight := vm.InitialHeight
	if initialHeight == 0 {
		initialHeight = 1
	}
	if vm.clock.Height() < initialHeight {
		if err := vm.clock.Set(initialHeight); err != nil {
			return err
		}
	}

	vm.log.Info("applied genesis",
		zap.Int("allocations", len(config.Allocations)),
		zap.String("message", config.Message),
	)

	// Mark this VM's state as initialized, so we can skip initGenesis in further restarts
	if err := vm.State.SetInitialized(); err != nil {
		return fmt.Errorf("error while setting db to initialized: %w", err)
	}
	return vm.State.Commit()
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	if vm.engine == nil {
		return nil, errNotInitialized
	}

	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(vm.metrics.InterceptRequest)
	server.RegisterAfterFunc(vm.metrics.AfterRequest)
	if err := server.RegisterService(&Service{vm: vm}, Name); err != nil {
		return nil, err
	}

	return map[string]http.Handler{
		"": server,
	}, nil
}

func (vm *VM) Engine() *executor.Engine {
	return vm.engine
}

func (vm *VM) Clock() *clock.BlockClock {
	return vm.clock
}

func (vm *VM) Bus() *events.Bus {
	return vm.bus
}

// RunClock advances the block height every [interval] until [ctx] is done.
func (vm *VM) RunClock(ctx context.Context, interval time.Duration) error {
	if vm.clock == nil {
		return errNotInitialized
	}
	return vm.clock.Run(ctx, interval, vm.metrics.SetHeight)
}

func (vm *VM) Version(context.Context) (string, error) {
	return Version.String(), nil
}

// Shutdown this vm
func (vm *VM) Shutdown(context.Context) error {
	if vm.State == nil {
		return nil
	}

	errs := wrappers.Errs{}
	errs.Add(
		vm.ledger.Close(),
		vm.State.Close(),
	)
	return errs.Err
}
