// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminodao/api"
	"github.com/chain4travel/caminodao/api/admin"
	"github.com/chain4travel/caminodao/api/server"
	"github.com/chain4travel/caminodao/config"
	"github.com/chain4travel/caminodao/genesis"
	"github.com/chain4travel/caminodao/vms/daovm"
	"github.com/chain4travel/caminodao/vms/daovm/events"
)

const (
	mainLoggerName = "main"
	dbNamespace    = "db"
	metricsBase    = "metrics"
	adminBase      = "admin"
)

var (
	_ App = (*app)(nil)

	errAlreadyStarted = errors.New("node already started")
	errNotStarted     = errors.New("node not started")
)

type App interface {
	// Start kicks off the node and returns without waiting for it to exit.
	Start() error

	// Stop notifies the node that it should stop and waits for its
	// components to shut down.
	Stop() error

	// ExitCode blocks until the node stopped and returns its exit code.
	ExitCode() (int, error)
}

func New(config config.Config) App {
	return &app{config: config}
}

// Run starts [app], waits for an interrupt or for the node to fail and
// returns the exit code.
func Run(app App) int {
	if err := app.Start(); err != nil {
		fmt.Printf("couldn't start node: %s\n", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-signals:
			_ = app.Stop()
		case <-stopped:
		}
	}()

	exitCode, err := app.ExitCode()
	close(stopped)
	signal.Stop(signals)
	if err != nil {
		fmt.Printf("node stopped with error: %s\n", err)
	}
	return exitCode
}

type app struct {
	config config.Config

	log        logging.Logger
	logFactory logging.Factory

	db            database.Database
	vm            *daovm.VM
	server        server.Server
	natsPublisher *events.NATSPublisher

	cancel   context.CancelFunc
	group    *errgroup.Group
	stopOnce sync.Once
	stopErr  error
}

func (a *app) Start() error {
	if a.group != nil {
		return errAlreadyStarted
	}

	a.logFactory = logging.NewFactory(a.config.Logging)
	log, err := a.logFactory.Make(mainLoggerName)
	if err != nil {
		a.logFactory.Close()
		return fmt.Errorf("couldn't create logger: %w", err)
	}
	a.log = log

	if err := a.initialize(); err != nil {
		a.log.Error("failed to initialize node", zap.Error(err))
		_ = a.shutdown()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.group, ctx = errgroup.WithContext(ctx)

	a.group.Go(a.server.Dispatch)
	if a.config.BlockInterval > 0 {
		a.group.Go(func() error {
			return a.vm.RunClock(ctx, a.config.BlockInterval)
		})
	}
	a.group.Go(func() error {
		// Stop the server if the clock failed
		<-ctx.Done()
		return a.server.Shutdown()
	})

	a.log.Info("node started",
		zap.Stringer("address", a.server.Addr()),
		zap.Uint32("networkID", a.config.NetworkID),
		zap.Duration("blockInterval", a.config.BlockInterval),
	)
	return nil
}

func (a *app) initialize() error {
	registry := prometheus.NewRegistry()
	errs := wrappers.Errs{}
	errs.Add(
		registry.Register(collectors.NewGoCollector()),
		registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	)
	if errs.Errored() {
		return errs.Err
	}

	var err error
	switch a.config.DBType {
	case config.LevelDBType:
		a.db, err = leveldb.New(a.config.DBPath, nil, a.log, dbNamespace, registry)
		if err != nil {
			return fmt.Errorf("couldn't create leveldb at %s: %w", a.config.DBPath, err)
		}
	case config.MemDBType:
		a.db = memdb.New()
	default:
		return fmt.Errorf("unknown database type %q", a.config.DBType)
	}

	publishers := []events.Publisher{}
	if a.config.NATS.Enabled() {
		a.natsPublisher, err = events.NewNATSPublisher(a.config.NATS.URL, a.config.NATS.SubjectPrefix, a.log)
		if err != nil {
			return err
		}
		a.log.Info("publishing events to NATS",
			zap.String("url", a.config.NATS.URL),
			zap.String("source", a.natsPublisher.Source()),
		)
		publishers = append(publishers, a.natsPublisher)
	}

	genesisBytes, err := genesis.Bytes(a.config.Genesis)
	if err != nil {
		return fmt.Errorf("couldn't encode genesis: %w", err)
	}

	a.vm = &daovm.VM{Config: daovm.Config{
		Config:        a.config.DAO,
		NetworkID:     a.config.NetworkID,
		InitialHeight: a.config.InitialHeight,
	}}
	if err := a.vm.Initialize(context.Background(), a.log, a.db, genesisBytes, registry, publishers...); err != nil {
		return fmt.Errorf("couldn't initialize dao vm: %w", err)
	}

	a.server, err = server.New(a.log, a.config.HTTP)
	if err != nil {
		return err
	}
	return a.addRoutes(registry)
}

func (a *app) addRoutes(registry *prometheus.Registry) error {
	handlers, err := a.vm.CreateHandlers(context.Background())
	if err != nil {
		return err
	}
	for endpoint, handler := range handlers {
		if err := a.server.AddRoute(handler, daovm.Name, endpoint); err != nil {
			return err
		}
	}
	if err := a.server.AddAliases(daovm.Name, api.ChainAlias); err != nil {
		return err
	}

	adminHandler, err := admin.NewService(admin.Config{
		Log:        a.log,
		LogFactory: a.logFactory,
	})
	if err != nil {
		return err
	}
	if err := a.server.AddRoute(adminHandler, adminBase, ""); err != nil {
		return err
	}

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return a.server.AddRoute(metricsHandler, metricsBase, "")
}

func (a *app) Stop() error {
	if a.group == nil {
		return errNotStarted
	}
	a.stopOnce.Do(func() {
		a.log.Info("shutting down node")
		a.cancel()
		a.stopErr = a.group.Wait()
		if err := a.shutdown(); err != nil && a.stopErr == nil {
			a.stopErr = err
		}
	})
	return a.stopErr
}

func (a *app) ExitCode() (int, error) {
	if a.group == nil {
		return 1, errNotStarted
	}
	if err := a.group.Wait(); err != nil {
		_ = a.Stop()
		return 1, err
	}
	if err := a.Stop(); err != nil {
		return 1, err
	}
	return 0, nil
}

// shutdown releases everything initialize created.
func (a *app) shutdown() error {
	errs := wrappers.Errs{}
	if a.vm != nil {
		errs.Add(a.vm.Shutdown(context.Background()))
	}
	if a.natsPublisher != nil {
		a.natsPublisher.Close()
	}
	if a.db != nil {
		errs.Add(a.db.Close())
	}
	if errs.Errored() {
		a.log.Error("failed to shut down cleanly", zap.Error(errs.Err))
	}
	a.logFactory.Close()
	return errs.Err
}
