// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var (
	_ Diff = (*diff)(nil)

	ErrMissingParentState = errors.New("missing parent state")

	errEventSeqMismatch = errors.New("event sequence diverged from parent state")
)

// Diff stages the writes of a single operation on top of a parent chain.
type Diff interface {
	Chain

	// Events returns the events added to this diff in order.
	Events() []*dao.EventEnvelope
	// Apply writes the staged changes into [State]. It must be called on
	// the state the diff was created from.
	Apply(State) error
}

type diff struct {
	parent Chain

	lastProposalID    uint64
	modifiedProposals map[uint64]*dao.Proposal

	addedVotes []voteWithKey
	votes      map[voteKey]bool

	lastEventSeq uint64
	addedEvents  []*dao.EventEnvelope
}

type voteWithKey struct {
	key     voteKey
	inFavor bool
}

func NewDiff(parent Chain) (Diff, error) {
	if parent == nil {
		return nil, ErrMissingParentState
	}
	return &diff{
		parent:            parent,
		lastProposalID:    parent.GetLastProposalID(),
		modifiedProposals: make(map[uint64]*dao.Proposal),
		votes:             make(map[voteKey]bool),
		lastEventSeq:      parent.GetLastEventSeq(),
	}, nil
}

func (d *diff) GetProposal(proposalID uint64) (*dao.Proposal, error) {
	if proposal, ok := d.modifiedProposals[proposalID]; ok {
		return proposal.Copy(), nil
	}
	return d.parent.GetProposal(proposalID)
}

func (d *diff) PutProposal(proposal *dao.Proposal) {
	d.modifiedProposals[proposal.ID] = proposal.Copy()
}

func (d *diff) UpdateProposal(proposalID uint64, update func(*dao.Proposal) error) error {
	return updateProposal(d, proposalID, update)
}

func (d *diff) NextProposalID() (uint64, error) {
	if d.lastProposalID == ^uint64(0) {
		return 0, errProposalIDOverflow
	}
	d.lastProposalID++
	return d.lastProposalID, nil
}

func (d *diff) GetLastProposalID() uint64 {
	return d.lastProposalID
}

func (d *diff) HasVoted(proposalID uint64, voter ids.ShortID) (bool, error) {
	if _, ok := d.votes[voteKey{proposalID: proposalID, voter: voter}]; ok {
		return true, nil
	}
	return d.parent.HasVoted(proposalID, voter)
}

func (d *diff) GetVote(proposalID uint64, voter ids.ShortID) (bool, bool, error) {
	if inFavor, ok := d.votes[voteKey{proposalID: proposalID, voter: voter}]; ok {
		return inFavor, true, nil
	}
	return d.parent.GetVote(proposalID, voter)
}

func (d *diff) RecordVote(proposalID uint64, voter ids.ShortID, inFavor bool) error {
	hasVoted, err := d.HasVoted(proposalID, voter)
	if err != nil {
		return err
	}
	if hasVoted {
		return dao.ErrAlreadyVoted
	}
	key := voteKey{proposalID: proposalID, voter: voter}
	d.votes[key] = inFavor
	d.addedVotes = append(d.addedVotes, voteWithKey{key: key, inFavor: inFavor})
	return nil
}

func (d *diff) GetLastEventSeq() uint64 {
	return d.lastEventSeq
}

func (d *diff) AddEvent(height uint64, event dao.Event) (*dao.EventEnvelope, error) {
	if d.lastEventSeq == ^uint64(0) {
		return nil, errEventSeqOverflow
	}
	d.lastEventSeq++
	envelope := &dao.EventEnvelope{
		Seq:    d.lastEventSeq,
		Height: height,
		Event:  event,
	}
	d.addedEvents = append(d.addedEvents, envelope)
	return envelope, nil
}

func (d *diff) Events() []*dao.EventEnvelope {
	return d.addedEvents
}

func (d *diff) Apply(baseState State) error {
	for baseState.GetLastProposalID() < d.lastProposalID {
		if _, err := baseState.NextProposalID(); err != nil {
			return err
		}
	}
	for _, proposal := range d.modifiedProposals {
		baseState.PutProposal(proposal)
	}
	for _, vote := range d.addedVotes {
		if err := baseState.RecordVote(vote.key.proposalID, vote.key.voter, vote.inFavor); err != nil {
			return err
		}
	}
	for _, event := range d.addedEvents {
		added, err := baseState.AddEvent(event.Height, event.Event)
		if err != nil {
			return err
		}
		if added.Seq != event.Seq {
			return fmt.Errorf("%w: expected %d, got %d", errEventSeqMismatch, event.Seq, added.Seq)
		}
	}
	return nil
}
