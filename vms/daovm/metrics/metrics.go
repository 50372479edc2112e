// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const (
	operationLabel = "operation"
	outcomeLabel   = "outcome"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var _ Metrics = (*metrics)(nil)

type Metrics interface {
	metric.APIInterceptor

	// Mark the outcome of a governance operation.
	MarkOperation(operation string, err error)
	// Mark that the given events were committed.
	MarkEvents([]*dao.EventEnvelope) error
	SetActiveProposals(int)
	SetHeight(uint64)
}

func New(
	namespace string,
	registerer prometheus.Registerer,
) (Metrics, error) {
	eventMetrics, err := newEventMetrics(namespace, registerer)
	m := &metrics{
		eventMetrics: eventMetrics,

		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations",
				Help:      "Number of governance operations by outcome",
			},
			[]string{operationLabel, outcomeLabel},
		),
		activeProposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_proposals",
			Help:      "Number of proposals open for voting or waiting to be closed",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_height",
			Help:      "Current block height",
		}),
	}

	errs := wrappers.Errs{Err: err}
	apiRequestMetrics, err := metric.NewAPIInterceptor(namespace, registerer)
	m.APIInterceptor = apiRequestMetrics
	errs.Add(
		err,

		registerer.Register(m.operations),
		registerer.Register(m.activeProposals),
		registerer.Register(m.height),
	)

	return m, errs.Err
}

type metrics struct {
	metric.APIInterceptor

	eventMetrics *eventMetrics

	operations      *prometheus.CounterVec
	activeProposals prometheus.Gauge
	height          prometheus.Gauge
}

func (m *metrics) MarkOperation(operation string, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *metrics) MarkEvents(events []*dao.EventEnvelope) error {
	for _, event := range events {
		if err := event.Event.Visit(m.eventMetrics); err != nil {
			return err
		}
	}
	return nil
}

func (m *metrics) SetActiveProposals(n int) {
	m.activeProposals.Set(float64(n))
}

func (m *metrics) SetHeight(height uint64) {
	m.height.Set(float64(height))
}
