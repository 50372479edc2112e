// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import "github.com/ava-labs/avalanchego/ids"

var (
	_ Event = (*ProposalCreated)(nil)
	_ Event = (*VoteCast)(nil)
	_ Event = (*ProposalStatusChanged)(nil)
	_ Event = (*ProposalClosed)(nil)
	_ Event = (*VotingEnded)(nil)
	_ Event = (*ProposalExecuted)(nil)
)

// EventVisitor allows custom logic against the concrete event types.
type EventVisitor interface {
	ProposalCreated(*ProposalCreated) error
	VoteCast(*VoteCast) error
	ProposalStatusChanged(*ProposalStatusChanged) error
	ProposalClosed(*ProposalClosed) error
	VotingEnded(*VotingEnded) error
	ProposalExecuted(*ProposalExecuted) error
}

type Event interface {
	// EventName is stable and used as a routing key by subscribers
	EventName() string
	AffectedProposal() uint64
	Visit(EventVisitor) error
}

// EventEnvelope is the persisted form of an event.
type EventEnvelope struct {
	// Global position in the event log, assigned from 1
	Seq uint64 `serialize:"true" json:"seq"`
	// Block height the emitting operation executed at
	Height uint64 `serialize:"true" json:"height"`
	Event  Event  `serialize:"true" json:"event"`
}

type ProposalCreated struct {
	ProposalID uint64      `serialize:"true" json:"proposalID"`
	Proposer   ids.ShortID `serialize:"true" json:"proposer"`
	Title      string      `serialize:"true" json:"title"`
}

func (*ProposalCreated) EventName() string            { return "ProposalCreated" }
func (e *ProposalCreated) AffectedProposal() uint64   { return e.ProposalID }
func (e *ProposalCreated) Visit(v EventVisitor) error { return v.ProposalCreated(e) }

type VoteCast struct {
	ProposalID uint64      `serialize:"true" json:"proposalID"`
	Voter      ids.ShortID `serialize:"true" json:"voter"`
	InFavor    bool        `serialize:"true" json:"inFavor"`
}

func (*VoteCast) EventName() string            { return "VoteCast" }
func (e *VoteCast) AffectedProposal() uint64   { return e.ProposalID }
func (e *VoteCast) Visit(v EventVisitor) error { return v.VoteCast(e) }

type ProposalStatusChanged struct {
	ProposalID uint64 `serialize:"true" json:"proposalID"`
	OldStatus  Status `serialize:"true" json:"oldStatus"`
	NewStatus  Status `serialize:"true" json:"newStatus"`
}

func (*ProposalStatusChanged) EventName() string            { return "ProposalStatusChanged" }
func (e *ProposalStatusChanged) AffectedProposal() uint64   { return e.ProposalID }
func (e *ProposalStatusChanged) Visit(v EventVisitor) error { return v.ProposalStatusChanged(e) }

type ProposalClosed struct {
	ProposalID  uint64 `serialize:"true" json:"proposalID"`
	FinalStatus Status `serialize:"true" json:"finalStatus"`
}

func (*ProposalClosed) EventName() string            { return "ProposalClosed" }
func (e *ProposalClosed) AffectedProposal() uint64   { return e.ProposalID }
func (e *ProposalClosed) Visit(v EventVisitor) error { return v.ProposalClosed(e) }

type VotingEnded struct {
	ProposalID uint64 `serialize:"true" json:"proposalID"`
	Approved   bool   `serialize:"true" json:"approved"`
}

func (*VotingEnded) EventName() string            { return "VotingEnded" }
func (e *VotingEnded) AffectedProposal() uint64   { return e.ProposalID }
func (e *VotingEnded) Visit(v EventVisitor) error { return v.VotingEnded(e) }

type ProposalExecuted struct {
	ProposalID uint64      `serialize:"true" json:"proposalID"`
	Executor   ids.ShortID `serialize:"true" json:"executor"`
}

func (*ProposalExecuted) EventName() string            { return "ProposalExecuted" }
func (e *ProposalExecuted) AffectedProposal() uint64   { return e.ProposalID }
func (e *ProposalExecuted) Visit(v EventVisitor) error { return v.ProposalExecuted(e) }
