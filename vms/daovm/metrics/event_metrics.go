// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var _ dao.EventVisitor = (*eventMetrics)(nil)

type eventMetrics struct {
	numProposalsCreated,
	numVotesFor,
	numVotesAgainst,
	numProposalsExecuted prometheus.Counter

	// final status of closed and cancelled proposals
	numProposalsResolved *prometheus.CounterVec
}

func newEventMetrics(
	namespace string,
	registerer prometheus.Registerer,
) (*eventMetrics, error) {
	errs := wrappers.Errs{}
	m := &eventMetrics{
		numProposalsCreated:  newEventMetric(namespace, "proposals_created", "Number of proposals created", registerer, &errs),
		numVotesFor:          newEventMetric(namespace, "votes_for", "Number of votes cast in favor", registerer, &errs),
		numVotesAgainst:      newEventMetric(namespace, "votes_against", "Number of votes cast against", registerer, &errs),
		numProposalsExecuted: newEventMetric(namespace, "proposals_executed", "Number of proposals executed", registerer, &errs),
		numProposalsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposals_resolved",
				Help:      "Number of proposals that left the active state by status",
			},
			[]string{"status"},
		),
	}
	errs.Add(registerer.Register(m.numProposalsResolved))
	return m, errs.Err
}

func newEventMetric(
	namespace string,
	name string,
	help string,
	registerer prometheus.Registerer,
	errs *wrappers.Errs,
) prometheus.Counter {
	eventMetric := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      fmt.Sprintf("%s_total", name),
		Help:      help,
	})
	errs.Add(registerer.Register(eventMetric))
	return eventMetric
}

func (m *eventMetrics) ProposalCreated(*dao.ProposalCreated) error {
	m.numProposalsCreated.Inc()
	return nil
}

func (m *eventMetrics) VoteCast(e *dao.VoteCast) error {
	if e.InFavor {
		m.numVotesFor.Inc()
	} else {
		m.numVotesAgainst.Inc()
	}
	return nil
}

func (m *eventMetrics) ProposalStatusChanged(e *dao.ProposalStatusChanged) error {
	if e.OldStatus == dao.Active {
		m.numProposalsResolved.WithLabelValues(e.NewStatus.String()).Inc()
	}
	return nil
}

func (*eventMetrics) ProposalClosed(*dao.ProposalClosed) error {
	return nil
}

func (*eventMetrics) VotingEnded(*dao.VotingEnded) error {
	return nil
}

func (m *eventMetrics) ProposalExecuted(*dao.ProposalExecuted) error {
	m.numProposalsExecuted.Inc()
	return nil
}
