// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProposalApprovalPercentage(t *testing.T) {
	tests := map[string]struct {
		votesFor, votesAgainst uint64
		expected               uint32
	}{
		"No votes":         {expected: 0},
		"All for":          {votesFor: 3, expected: 100},
		"All against":      {votesAgainst: 3, expected: 0},
		"Rounded down":     {votesFor: 2, votesAgainst: 1, expected: 66},
		"3 for 1 against":  {votesFor: 3, votesAgainst: 1, expected: 75},
		"Large counts":     {votesFor: math.MaxUint64 / 2, votesAgainst: math.MaxUint64 / 2, expected: 50},
		"Near max for":     {votesFor: math.MaxUint64 - 1, votesAgainst: 1, expected: 100},
		"Tie is not above": {votesFor: 5, votesAgainst: 5, expected: 50},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := &Proposal{
				VotesFor:     tt.votesFor,
				VotesAgainst: tt.votesAgainst,
				TotalVotes:   tt.votesFor + tt.votesAgainst,
			}
			require.Equal(t, tt.expected, p.ApprovalPercentage())
		})
	}
}

func TestProposalResolve(t *testing.T) {
	tests := map[string]struct {
		votesFor, votesAgainst uint64
		expected               Status
	}{
		"Approved: majority":   {votesFor: 3, votesAgainst: 1, expected: Approved},
		"Approved: single for": {votesFor: 1, expected: Approved},
		"Rejected: tie":        {votesFor: 5, votesAgainst: 5, expected: Rejected},
		"Rejected: no votes":   {expected: Rejected},
		"Rejected: minority":   {votesFor: 1, votesAgainst: 2, expected: Rejected},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := &Proposal{VotesFor: tt.votesFor, VotesAgainst: tt.votesAgainst}
			require.Equal(t, tt.expected, p.Resolve())
			require.Equal(t, tt.expected == Approved, p.IsApproved())
		})
	}
}

func TestProposalAddVote(t *testing.T) {
	require := require.New(t)

	p := &Proposal{}
	p.AddVote(true)
	p.AddVote(false)
	p.AddVote(true)
	require.Equal(uint64(2), p.VotesFor)
	require.Equal(uint64(1), p.VotesAgainst)
	require.Equal(uint64(3), p.TotalVotes)
	require.NoError(p.Verify())

	p = &Proposal{VotesFor: math.MaxUint64, TotalVotes: math.MaxUint64}
	p.AddVote(true)
	require.Equal(uint64(math.MaxUint64), p.VotesFor)
	require.Equal(uint64(math.MaxUint64), p.TotalVotes)
}

func TestProposalIsVotingEnded(t *testing.T) {
	p := &Proposal{VotingStart: 1, VotingEnd: 11}
	require.False(t, p.IsVotingEnded(10))
	require.True(t, p.IsVotingEnded(11))
	require.True(t, p.IsVotingEnded(12))
}

func TestProposalVerify(t *testing.T) {
	tests := map[string]struct {
		proposal    Proposal
		expectedErr error
	}{
		"OK: active": {
			proposal: Proposal{Status: Active, VotesFor: 1, VotesAgainst: 2, TotalVotes: 3},
		},
		"OK: executed": {
			proposal: Proposal{Status: Executed, Executed: true, ExecutedAt: 5, DepositRefunded: true},
		},
		"OK: cancelled and refunded": {
			proposal: Proposal{Status: Cancelled, DepositRefunded: true},
		},
		"Fail: unknown status": {
			proposal:    Proposal{Status: Expired + 1},
			expectedErr: errUnknownStatus,
		},
		"Fail: vote count mismatch": {
			proposal:    Proposal{Status: Active, VotesFor: 1, TotalVotes: 2},
			expectedErr: errVoteCountMismatch,
		},
		"Fail: refunded while approved": {
			proposal:    Proposal{Status: Approved, DepositRefunded: true},
			expectedErr: errRefundedWhileOpen,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, tt.proposal.Verify(), tt.expectedErr)
		})
	}

	require.Error(t, (&Proposal{Status: Approved, Executed: true}).Verify())
	require.Error(t, (&Proposal{Status: Executed}).Verify())
}

func TestProposalCopy(t *testing.T) {
	p := &Proposal{ID: 1, Title: "title"}
	c := p.Copy()
	c.Title = "other"
	require.Equal(t, "title", p.Title)
	require.Equal(t, uint64(1), c.ID)
}
