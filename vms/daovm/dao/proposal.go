// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	errVoteCountMismatch = errors.New("total votes doesn't match votes for and against")
	errRefundedWhileOpen = errors.New("deposit refunded before the proposal was final")
)

// Proposal is a governance item subject to voting.
type Proposal struct {
	// Unique proposal ID, assigned from 1
	ID uint64 `serialize:"true" json:"id"`
	// Proposal creator, the deposit is reserved from and refunded to this address
	Proposer ids.ShortID `serialize:"true" json:"proposer"`

	Title       string `serialize:"true" json:"title"`
	Description string `serialize:"true" json:"description"`

	// Block heights
	CreatedAt   uint64 `serialize:"true" json:"createdAt"`
	VotingStart uint64 `serialize:"true" json:"votingStart"`
	VotingEnd   uint64 `serialize:"true" json:"votingEnd"`

	Status Status `serialize:"true" json:"status"`

	VotesFor     uint64 `serialize:"true" json:"votesFor"`
	VotesAgainst uint64 `serialize:"true" json:"votesAgainst"`
	TotalVotes   uint64 `serialize:"true" json:"totalVotes"`

	Executed bool `serialize:"true" json:"executed"`
	// Only meaningful if Executed is true
	ExecutedAt uint64 `serialize:"true" json:"executedAt"`

	Deposit         uint64 `serialize:"true" json:"deposit"`
	DepositRefunded bool   `serialize:"true" json:"depositRefunded"`
}

// Copy returns a detached copy of the proposal.
func (p *Proposal) Copy() *Proposal {
	proposal := *p
	return &proposal
}

func (p *Proposal) IsActive() bool {
	return p.Status == Active
}

// IsVotingEnded returns true if no more votes can be cast at [height].
func (p *Proposal) IsVotingEnded(height uint64) bool {
	return height >= p.VotingEnd
}

// IsApproved applies the strict majority rule. Ties and proposals without
// votes are not approved.
func (p *Proposal) IsApproved() bool {
	return p.VotesFor > p.VotesAgainst
}

// Resolve returns the status an active proposal closes with.
func (p *Proposal) Resolve() Status {
	if p.IsApproved() {
		return Approved
	}
	return Rejected
}

// ApprovalPercentage returns the share of votes in favor, rounded down.
func (p *Proposal) ApprovalPercentage() uint32 {
	if p.TotalVotes == 0 {
		return 0
	}
	// votesFor <= totalVotes, so the result fits into uint32
	if p.VotesFor > math.MaxUint64/100 {
		return uint32(p.VotesFor / (p.TotalVotes / 100))
	}
	return uint32(p.VotesFor * 100 / p.TotalVotes)
}

// AddVote counts a single vote. Counters saturate instead of wrapping.
func (p *Proposal) AddVote(inFavor bool) {
	if inFavor {
		p.VotesFor = saturatingInc(p.VotesFor)
	} else {
		p.VotesAgainst = saturatingInc(p.VotesAgainst)
	}
	p.TotalVotes = saturatingInc(p.TotalVotes)
}

// Verify checks the invariants that must hold for any stored proposal.
func (p *Proposal) Verify() error {
	if err := p.Status.Verify(); err != nil {
		return err
	}
	if p.TotalVotes != p.VotesFor+p.VotesAgainst {
		return fmt.Errorf("%w: %d != %d + %d", errVoteCountMismatch, p.TotalVotes, p.VotesFor, p.VotesAgainst)
	}
	if p.Executed != (p.Status == Executed) {
		return fmt.Errorf("proposal %d: executed flag %t with status %s", p.ID, p.Executed, p.Status)
	}
	if p.DepositRefunded && !p.Status.IsTerminal() {
		return fmt.Errorf("%w: %d is %s", errRefundedWhileOpen, p.ID, p.Status)
	}
	return nil
}

func saturatingInc(v uint64) uint64 {
	if v == math.MaxUint64 {
		return v
	}
	return v + 1
}
