// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/locked"
)

const MaxEventsPerQuery = 1024

func (e *Engine) Height() uint64 {
	return e.Clock.Height()
}

func (e *Engine) GetProposal(proposalID uint64) (*dao.Proposal, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return getProposal(e.State, proposalID)
}

// GetVote returns whether [voter] voted in favor of the proposal and whether
// a vote exists at all.
func (e *Engine) GetVote(proposalID uint64, voter ids.ShortID) (bool, bool, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.State.GetVote(proposalID, voter)
}

// GetBalance returns the balance of [addr] as of the last commit.
func (e *Engine) GetBalance(addr ids.ShortID) (locked.Balance, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.Balances.GetBalance(addr)
}

// GetNextProposalID returns the id the next created proposal gets.
func (e *Engine) GetNextProposalID() uint64 {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.State.GetLastProposalID() + 1
}

func (e *Engine) HasVoted(proposalID uint64, voter ids.ShortID) (bool, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.State.HasVoted(proposalID, voter)
}

func (e *Engine) ApprovalPercentage(proposalID uint64) (uint32, error) {
	proposal, err := e.GetProposal(proposalID)
	if err != nil {
		return 0, err
	}
	return proposal.ApprovalPercentage(), nil
}

func (e *Engine) GetProposals(statuses ...dao.Status) ([]*dao.Proposal, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.State.GetProposals(statuses...)
}

// GetClosableProposals returns the proposals that can be closed at the
// current height.
func (e *Engine) GetClosableProposals() ([]*dao.Proposal, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.State.GetClosableProposals(e.Clock.Height())
}

func (e *Engine) GetVotes(proposalID uint64) ([]*dao.VoteWithAddr, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if _, err := getProposal(e.State, proposalID); err != nil {
		return nil, err
	}
	return e.State.GetVotes(proposalID)
}

// GetEvents returns up to [limit] events starting at [fromSeq]. The limit is
// capped at MaxEventsPerQuery.
func (e *Engine) GetEvents(fromSeq uint64, limit int) ([]*dao.EventEnvelope, error) {
	if limit <= 0 || limit > MaxEventsPerQuery {
		limit = MaxEventsPerQuery
	}

	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.State.GetEvents(fromSeq, limit)
}
