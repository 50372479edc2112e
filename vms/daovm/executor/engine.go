// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/state"
)

const (
	OpCreateProposal  = "createProposal"
	OpVote            = "vote"
	OpCloseProposal   = "closeProposal"
	OpExecuteProposal = "executeProposal"
	OpCancelProposal  = "cancelProposal"
)

// rejections are expected outcomes and don't indicate a fault
var rejections = []error{
	dao.ErrTitleTooLong,
	dao.ErrDescriptionTooLong,
	dao.ErrInvalidVotingPeriod,
	dao.ErrInsufficientDeposit,
	dao.ErrUnexpectedProposalID,
	dao.ErrProposalNotFound,
	dao.ErrProposalNotActive,
	dao.ErrProposalNotApproved,
	dao.ErrAlreadyExecuted,
	dao.ErrAlreadyVoted,
	dao.ErrVotingPeriodEnded,
	dao.ErrVotingPeriodNotEnded,
	dao.ErrNotProposer,
}

// Engine is the only writer of the governance state. Every operation either
// fully applies or leaves state and balances untouched: deposit changes are
// staged in the versiondb backing the state and committed with it.
type Engine struct {
	*Backend

	lock sync.RWMutex
}

func NewEngine(backend *Backend) *Engine {
	engine := &Engine{Backend: backend}
	engine.Metrics.SetActiveProposals(backend.State.NumActiveProposals())
	return engine
}

// CreateProposal opens a new proposal for voting and reserves the proposal
// deposit from [proposer].
func (e *Engine) CreateProposal(
	proposer ids.ShortID,
	title string,
	description string,
	votingPeriod uint64,
) (uint64, error) {
	return e.CreateProposalWithID(0, proposer, title, description, votingPeriod)
}

// CreateProposalWithID is CreateProposal that fails unless the new proposal
// gets [expectedID]. Zero accepts any id.
func (e *Engine) CreateProposalWithID(
	expectedID uint64,
	proposer ids.ShortID,
	title string,
	description string,
	votingPeriod uint64,
) (uint64, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	proposalID, err := e.createProposal(expectedID, proposer, title, description, votingPeriod)
	e.finish(OpCreateProposal, err, zap.Uint64("proposalID", proposalID), zap.Stringer("proposer", proposer))
	return proposalID, err
}

func (e *Engine) createProposal(
	expectedID uint64,
	proposer ids.ShortID,
	title string,
	description string,
	votingPeriod uint64,
) (uint64, error) {
	switch {
	case uint64(len(title)) > uint64(e.Config.MaxTitleLength):
		return 0, fmt.Errorf("%w: %d > %d", dao.ErrTitleTooLong, len(title), e.Config.MaxTitleLength)
	case uint64(len(description)) > uint64(e.Config.MaxDescriptionLength):
		return 0, fmt.Errorf("%w: %d > %d", dao.ErrDescriptionTooLong, len(description), e.Config.MaxDescriptionLength)
	case votingPeriod < e.Config.MinVotingPeriod || votingPeriod > e.Config.MaxVotingPeriod:
		return 0, fmt.Errorf("%w: %d not in [%d, %d]",
			dao.ErrInvalidVotingPeriod, votingPeriod, e.Config.MinVotingPeriod, e.Config.MaxVotingPeriod)
	}

	height := e.Clock.Height()
	if height > ^uint64(0)-votingPeriod {
		return 0, fmt.Errorf("%w: voting end overflows at height %d", dao.ErrInvalidVotingPeriod, height)
	}

	diff, err := state.NewDiff(e.State)
	if err != nil {
		return 0, err
	}
	proposalID, err := diff.NextProposalID()
	if err != nil {
		return 0, err
	}
	if expectedID != 0 && proposalID != expectedID {
		return 0, fmt.Errorf("%w: next is %d, not %d", dao.ErrUnexpectedProposalID, proposalID, expectedID)
	}

	proposal := &dao.Proposal{
		ID:          proposalID,
		Proposer:    proposer,
		Title:       title,
		Description: description,
		CreatedAt:   height,
		VotingStart: height,
		VotingEnd:   height + votingPeriod,
		Status:      dao.Active,
		Deposit:     e.Config.ProposalDeposit,
	}
	if err := proposal.Verify(); err != nil {
		return 0, err
	}
	diff.PutProposal(proposal)
	if _, err := diff.AddEvent(height, &dao.ProposalCreated{
		ProposalID: proposalID,
		Proposer:   proposer,
		Title:      title,
	}); err != nil {
		return 0, err
	}

	if err := e.Currency.Reserve(proposer, e.Config.ProposalDeposit); err != nil {
		e.State.Abort()
		return 0, fmt.Errorf("%w: %w", dao.ErrInsufficientDeposit, err)
	}
	if err := e.commit(diff); err != nil {
		return 0, err
	}
	return proposalID, nil
}

// Vote casts a single vote of weight one.
func (e *Engine) Vote(voter ids.ShortID, proposalID uint64, inFavor bool) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	err := e.vote(voter, proposalID, inFavor)
	e.finish(OpVote, err, zap.Uint64("proposalID", proposalID), zap.Stringer("voter", voter), zap.Bool("inFavor", inFavor))
	return err
}

func (e *Engine) vote(voter ids.ShortID, proposalID uint64, inFavor bool) error {
	diff, err := state.NewDiff(e.State)
	if err != nil {
		return err
	}

	height := e.Clock.Height()
	err = diff.UpdateProposal(proposalID, func(proposal *dao.Proposal) error {
		switch {
		case !proposal.IsActive():
			return fmt.Errorf("%w: %d is %s", dao.ErrProposalNotActive, proposalID, proposal.Status)
		case proposal.IsVotingEnded(height):
			return fmt.Errorf("%w: %d ended at %d", dao.ErrVotingPeriodEnded, proposalID, proposal.VotingEnd)
		}
		hasVoted, err := diff.HasVoted(proposalID, voter)
		if err != nil {
			return err
		}
		if hasVoted {
			return fmt.Errorf("%w: %s on %d", dao.ErrAlreadyVoted, voter, proposalID)
		}
		proposal.AddVote(inFavor)
		return proposal.Verify()
	})
	if err != nil {
		return err
	}

	if err := diff.RecordVote(proposalID, voter, inFavor); err != nil {
		return err
	}
	if _, err := diff.AddEvent(height, &dao.VoteCast{
		ProposalID: proposalID,
		Voter:      voter,
		InFavor:    inFavor,
	}); err != nil {
		return err
	}
	return e.commit(diff)
}

// CloseProposal resolves a proposal whose voting period ended. Anyone can
// close a proposal.
func (e *Engine) CloseProposal(caller ids.ShortID, proposalID uint64) (dao.Status, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	status, err := e.closeProposal(proposalID)
	e.finish(OpCloseProposal, err, zap.Uint64("proposalID", proposalID), zap.Stringer("caller", caller), zap.Stringer("status", status))
	return status, err
}

func (e *Engine) closeProposal(proposalID uint64) (dao.Status, error) {
	diff, err := state.NewDiff(e.State)
	if err != nil {
		return 0, err
	}

	var (
		height               = e.Clock.Height()
		oldStatus, newStatus dao.Status
	)
	err = diff.UpdateProposal(proposalID, func(proposal *dao.Proposal) error {
		switch {
		case !proposal.IsVotingEnded(height):
			return fmt.Errorf("%w: %d ends at %d", dao.ErrVotingPeriodNotEnded, proposalID, proposal.VotingEnd)
		case !proposal.IsActive():
			return fmt.Errorf("%w: %d is %s", dao.ErrProposalNotActive, proposalID, proposal.Status)
		}
		oldStatus = proposal.Status
		proposal.Status = proposal.Resolve()
		newStatus = proposal.Status
		return proposal.Verify()
	})
	if err != nil {
		return 0, err
	}

	if err := addEvents(diff, height,
		&dao.ProposalStatusChanged{
			ProposalID: proposalID,
			OldStatus:  oldStatus,
			NewStatus:  newStatus,
		},
		&dao.VotingEnded{
			ProposalID: proposalID,
			Approved:   newStatus == dao.Approved,
		},
		&dao.ProposalClosed{
			ProposalID:  proposalID,
			FinalStatus: newStatus,
		},
	); err != nil {
		return 0, err
	}
	if err := e.commit(diff); err != nil {
		return 0, err
	}
	return newStatus, nil
}

// ExecuteProposal marks an approved proposal as executed and refunds the
// deposit to its proposer. Anyone can execute a proposal.
func (e *Engine) ExecuteProposal(caller ids.ShortID, proposalID uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	err := e.executeProposal(caller, proposalID)
	e.finish(OpExecuteProposal, err, zap.Uint64("proposalID", proposalID), zap.Stringer("caller", caller))
	return err
}

func (e *Engine) executeProposal(caller ids.ShortID, proposalID uint64) error {
	diff, err := state.NewDiff(e.State)
	if err != nil {
		return err
	}

	var (
		height   = e.Clock.Height()
		proposer ids.ShortID
		refund   uint64
	)
	err = diff.UpdateProposal(proposalID, func(proposal *dao.Proposal) error {
		switch {
		case proposal.Status != dao.Approved:
			return fmt.Errorf("%w: %d is %s", dao.ErrProposalNotApproved, proposalID, proposal.Status)
		case proposal.Executed:
			return fmt.Errorf("%w: %d at %d", dao.ErrAlreadyExecuted, proposalID, proposal.ExecutedAt)
		}
		proposal.Executed = true
		proposal.ExecutedAt = height
		proposal.Status = dao.Executed
		proposer = proposal.Proposer
		refund = markRefunded(proposal)
		return proposal.Verify()
	})
	if err != nil {
		return err
	}

	if err := addEvents(diff, height,
		&dao.ProposalExecuted{
			ProposalID: proposalID,
			Executor:   caller,
		},
		&dao.ProposalStatusChanged{
			ProposalID: proposalID,
			OldStatus:  dao.Approved,
			NewStatus:  dao.Executed,
		},
	); err != nil {
		return err
	}
	return e.refundAndCommit(diff, proposer, refund)
}

// CancelProposal withdraws an active proposal before its voting period
// ended and refunds the deposit. Only the proposer can cancel.
func (e *Engine) CancelProposal(caller ids.ShortID, proposalID uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	err := e.cancelProposal(caller, proposalID)
	e.finish(OpCancelProposal, err, zap.Uint64("proposalID", proposalID), zap.Stringer("caller", caller))
	return err
}

func (e *Engine) cancelProposal(caller ids.ShortID, proposalID uint64) error {
	diff, err := state.NewDiff(e.State)
	if err != nil {
		return err
	}

	var (
		height    = e.Clock.Height()
		oldStatus dao.Status
		refund    uint64
	)
	err = diff.UpdateProposal(proposalID, func(proposal *dao.Proposal) error {
		switch {
		case proposal.Proposer != caller:
			return fmt.Errorf("%w: %s", dao.ErrNotProposer, caller)
		case !proposal.IsActive():
			return fmt.Errorf("%w: %d is %s", dao.ErrProposalNotActive, proposalID, proposal.Status)
		case proposal.IsVotingEnded(height):
			return fmt.Errorf("%w: %d ended at %d", dao.ErrVotingPeriodEnded, proposalID, proposal.VotingEnd)
		}
		oldStatus = proposal.Status
		proposal.Status = dao.Cancelled
		refund = markRefunded(proposal)
		return proposal.Verify()
	})
	if err != nil {
		return err
	}

	if _, err := diff.AddEvent(height, &dao.ProposalStatusChanged{
		ProposalID: proposalID,
		OldStatus:  oldStatus,
		NewStatus:  dao.Cancelled,
	}); err != nil {
		return err
	}
	return e.refundAndCommit(diff, caller, refund)
}

// refundAndCommit unreserves [amount] and commits [diff] in one database
// commit.
func (e *Engine) refundAndCommit(diff state.Diff, proposer ids.ShortID, amount uint64) error {
	if amount > 0 {
		if err := e.Currency.Unreserve(proposer, amount); err != nil {
			e.State.Abort()
			return fmt.Errorf("failed to refund deposit of %s: %w", proposer, err)
		}
	}
	return e.commit(diff)
}

// commit writes [diff] into the base state and persists it together with
// the staged balance changes. Published events and metrics are only updated
// once the commit succeeded.
func (e *Engine) commit(diff state.Diff) error {
	if err := diff.Apply(e.State); err != nil {
		e.State.Abort()
		return fmt.Errorf("failed to apply diff: %w", err)
	}
	if err := e.State.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}

	committed := diff.Events()
	if err := e.Metrics.MarkEvents(committed); err != nil {
		e.Log.Warn("failed to update event metrics", zap.Error(err))
	}
	e.Metrics.SetActiveProposals(e.State.NumActiveProposals())
	if err := e.Publisher.Publish(committed); err != nil {
		e.Log.Warn("failed to publish events",
			zap.Uint64("firstSeq", committed[0].Seq),
			zap.Int("numEvents", len(committed)),
			zap.Error(err),
		)
	}
	return nil
}

func (e *Engine) finish(operation string, err error, fields ...zap.Field) {
	e.Metrics.MarkOperation(operation, err)
	switch {
	case err == nil:
		e.Log.Debug(operation+" succeeded", fields...)
	case isRejection(err):
		e.Log.Debug(operation+" rejected", append(fields, zap.Error(err))...)
	default:
		e.Log.Error(operation+" failed", append(fields, zap.Error(err))...)
	}
}

func isRejection(err error) bool {
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}

// markRefunded flags the deposit as refunded and returns the amount that
// still has to be unreserved.
func markRefunded(proposal *dao.Proposal) uint64 {
	if proposal.DepositRefunded {
		return 0
	}
	proposal.DepositRefunded = true
	return proposal.Deposit
}

func getProposal(chain state.Chain, proposalID uint64) (*dao.Proposal, error) {
	proposal, err := chain.GetProposal(proposalID)
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %d", dao.ErrProposalNotFound, proposalID)
	}
	return proposal, err
}

func addEvents(chain state.Chain, height uint64, events ...dao.Event) error {
	for _, event := range events {
		if _, err := chain.AddEvent(height, event); err != nil {
			return err
		}
	}
	return nil
}
