// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import "errors"

// Errors returned by governance operations. They never leave state modified.
var (
	// validation
	ErrTitleTooLong        = errors.New("title too long")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrInvalidVotingPeriod = errors.New("invalid voting period")
	ErrInsufficientDeposit = errors.New("insufficient funds for proposal deposit")
	// the next proposal id isn't the one the proposer asked for
	ErrUnexpectedProposalID = errors.New("unexpected proposal id")

	// lookup
	ErrProposalNotFound = errors.New("proposal not found")

	// state
	ErrProposalNotActive   = errors.New("proposal is not active")
	ErrProposalNotApproved = errors.New("proposal not approved")
	ErrAlreadyExecuted     = errors.New("proposal already executed")
	ErrAlreadyVoted        = errors.New("already voted on this proposal")

	// timing
	ErrVotingPeriodEnded    = errors.New("voting period has ended")
	ErrVotingPeriodNotEnded = errors.New("voting period has not ended")

	// authorization
	ErrNotProposer = errors.New("caller is not the proposer")
)
