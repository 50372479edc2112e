// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package daovm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/crypto/secp256k1"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/chain4travel/caminodao/api"
	"github.com/chain4travel/caminodao/vms/daovm/auth"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/executor"
)

// signAction signs [action] for the local network unless another network is
// set.
func signAction(t *testing.T, key *secp256k1.PrivateKey, action *auth.Action) Signed {
	t.Helper()
	if action.NetworkID == 0 {
		action.NetworkID = constants.LocalID
	}
	signature, err := action.Sign(key)
	require.NoError(t, err)
	return Signed{Signature: signature}
}

func createArgs(t *testing.T, key *secp256k1.PrivateKey, proposalID uint64, title string, votingPeriod *json.Uint64) *CreateProposalArgs {
	t.Helper()
	args := &CreateProposalArgs{
		Proposer:     formatAddr(t, key.Address()),
		ProposalID:   json.Uint64(proposalID),
		Title:        title,
		VotingPeriod: votingPeriod,
	}
	args.Signed = signAction(t, key, args.Action())
	return args
}

func voteArgs(t *testing.T, key *secp256k1.PrivateKey, proposalID uint64, inFavor bool) *VoteArgs {
	t.Helper()
	args := &VoteArgs{
		Voter:      formatAddr(t, key.Address()),
		ProposalID: json.Uint64(proposalID),
		InFavor:    inFavor,
	}
	args.Signed = signAction(t, key, args.Action())
	return args
}

func actionArgs(t *testing.T, key *secp256k1.PrivateKey, method string, proposalID uint64) *ProposalActionArgs {
	t.Helper()
	args := &ProposalActionArgs{
		Caller:     formatAddr(t, key.Address()),
		ProposalID: json.Uint64(proposalID),
	}
	args.Signed = signAction(t, key, args.Action(method))
	return args
}

func TestServiceApprovedProposal(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t, memdb.New())
	service := &Service{vm: vm}
	proposer := formatAddr(t, proposerAddr)

	next := api.JSONProposalID{}
	require.NoError(service.GetNextProposalID(nil, &struct{}{}, &next))
	require.Equal(json.Uint64(1), next.ProposalID)

	args := &CreateProposalArgs{
		Proposer:    proposer,
		ProposalID:  next.ProposalID,
		Title:       "Fund the bridge",
		Description: "Allocate treasury funds",
	}
	args.Signed = signAction(t, proposerKey, args.Action())
	created := api.JSONProposalID{}
	require.NoError(service.CreateProposal(nil, args, &created))
	require.Equal(json.Uint64(1), created.ProposalID)

	for i, voter := range voterKeys {
		require.NoError(service.Vote(nil, voteArgs(t, voter, 1, i < 3), &api.EmptyReply{}))
	}

	closeArgs := actionArgs(t, proposerKey, executor.OpCloseProposal, 1)
	err := service.CloseProposal(nil, closeArgs, &CloseProposalReply{})
	require.ErrorIs(err, dao.ErrVotingPeriodNotEnded)

	// default voting period is the minimum one
	require.NoError(vm.Clock().Set(1 + dao.DefaultConfig.MinVotingPeriod))

	closable := GetProposalsReply{}
	require.NoError(service.GetClosableProposals(nil, &struct{}{}, &closable))
	require.Len(closable.Proposals, 1)

	closed := CloseProposalReply{}
	require.NoError(service.CloseProposal(nil, closeArgs, &closed))
	require.Equal(dao.Approved, closed.Status)

	// anyone can execute
	executeArgs := actionArgs(t, voterKeys[3], executor.OpExecuteProposal, 1)
	require.NoError(service.ExecuteProposal(nil, executeArgs, &api.EmptyReply{}))

	reply := GetProposalReply{}
	require.NoError(service.GetProposal(nil, &api.JSONProposalID{ProposalID: created.ProposalID}, &reply))
	executedAt := json.Uint64(11)
	require.Equal(APIProposal{
		ID:                 1,
		Proposer:           proposer,
		Title:              "Fund the bridge",
		Description:        "Allocate treasury funds",
		CreatedAt:          1,
		VotingStart:        1,
		VotingEnd:          11,
		Status:             dao.Executed,
		VotesFor:           3,
		VotesAgainst:       1,
		TotalVotes:         4,
		ApprovalPercentage: 75,
		Executed:           true,
		ExecutedAt:         &executedAt,
		Deposit:            1000,
		DepositRefunded:    true,
	}, reply.Proposal)

	balance := GetBalanceReply{}
	require.NoError(service.GetBalance(nil, &api.JSONAddress{Address: proposer}, &balance))
	require.Equal(GetBalanceReply{Free: testFunds}, balance)

	votes := GetVotesReply{}
	require.NoError(service.GetVotes(nil, &api.JSONProposalID{ProposalID: 1}, &votes))
	require.Len(votes.Votes, len(voterAddrs))
	for _, vote := range votes.Votes {
		require.True(strings.HasPrefix(vote.Voter, api.ChainAlias+"-local1"))
	}

	height := api.JSONHeight{}
	require.NoError(service.GetHeight(nil, &struct{}{}, &height))
	require.Equal(json.Uint64(11), height.Height)
}

func TestServiceVoteQueries(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t, memdb.New())
	service := &Service{vm: vm}

	period := json.Uint64(100)
	created := api.JSONProposalID{}
	require.NoError(service.CreateProposal(nil, createArgs(t, proposerKey, 1, "title", &period), &created))

	voter := formatAddr(t, voterAddrs[0])
	getVoteArgs := &GetVoteArgs{ProposalID: created.ProposalID, Voter: voter}

	vote := GetVoteReply{}
	require.NoError(service.GetVote(nil, getVoteArgs, &vote))
	require.Equal(GetVoteReply{}, vote)

	require.NoError(service.Vote(nil, voteArgs(t, voterKeys[0], 1, false), &api.EmptyReply{}))
	err := service.Vote(nil, voteArgs(t, voterKeys[0], 1, true), &api.EmptyReply{})
	require.ErrorIs(err, dao.ErrAlreadyVoted)

	require.NoError(service.GetVote(nil, getVoteArgs, &vote))
	require.True(vote.Voted)
	require.NotNil(vote.InFavor)
	require.False(*vote.InFavor)

	hasVoted := HasVotedReply{}
	require.NoError(service.HasVoted(nil, getVoteArgs, &hasVoted))
	require.True(hasVoted.HasVoted)

	reply := GetProposalReply{}
	require.NoError(service.GetProposal(nil, &created, &reply))
	require.Equal(json.Uint64(101), reply.Proposal.VotingEnd)
	require.Nil(reply.Proposal.ExecutedAt)
	require.Zero(reply.Proposal.ApprovalPercentage)
}

func TestServiceGetProposals(t *testing.T) {
	vm := newTestVM(t, memdb.New())
	service := &Service{vm: vm}

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, service.CreateProposal(nil, createArgs(t, proposerKey, i, "title", nil), &api.JSONProposalID{}))
	}
	cancelArgs := actionArgs(t, proposerKey, executor.OpCancelProposal, 2)
	require.NoError(t, service.CancelProposal(nil, cancelArgs, &api.EmptyReply{}))

	tests := map[string]struct {
		statuses    []dao.Status
		expectedIDs []json.Uint64
	}{
		"OK: all": {
			expectedIDs: []json.Uint64{1, 2, 3},
		},
		"OK: active": {
			statuses:    []dao.Status{dao.Active},
			expectedIDs: []json.Uint64{1, 3},
		},
		"OK: cancelled or executed": {
			statuses:    []dao.Status{dao.Cancelled, dao.Executed},
			expectedIDs: []json.Uint64{2},
		},
		"OK: none approved": {
			statuses: []dao.Status{dao.Approved},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			reply := GetProposalsReply{}
			require.NoError(service.GetProposals(nil, &GetProposalsArgs{Statuses: tt.statuses}, &reply))
			ids := []json.Uint64{}
			for _, proposal := range reply.Proposals {
				ids = append(ids, proposal.ID)
			}
			if tt.expectedIDs == nil {
				tt.expectedIDs = []json.Uint64{}
			}
			require.Equal(tt.expectedIDs, ids)
		})
	}
}

func TestServiceGetEvents(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t, memdb.New())
	service := &Service{vm: vm}

	require.NoError(service.CreateProposal(nil, createArgs(t, proposerKey, 1, "", nil), &api.JSONProposalID{}))
	require.NoError(service.Vote(nil, voteArgs(t, voterKeys[0], 1, true), &api.EmptyReply{}))
	cancelArgs := actionArgs(t, proposerKey, executor.OpCancelProposal, 1)
	require.NoError(service.CancelProposal(nil, cancelArgs, &api.EmptyReply{}))

	all := GetEventsReply{}
	require.NoError(service.GetEvents(nil, &GetEventsArgs{}, &all))
	names := make([]string, len(all.Events))
	for i, event := range all.Events {
		names[i] = event.Event.EventName()
	}
	require.Equal([]string{"ProposalCreated", "VoteCast", "ProposalStatusChanged"}, names)
	require.Equal(json.Uint64(len(all.Events)+1), all.NextSeq)

	page := GetEventsReply{}
	require.NoError(service.GetEvents(nil, &GetEventsArgs{FromSeq: 2, Limit: 2}, &page))
	require.Len(page.Events, 2)
	require.Equal(uint64(2), page.Events[0].Seq)
	require.Equal(json.Uint64(4), page.NextSeq)

	empty := GetEventsReply{}
	require.NoError(service.GetEvents(nil, &GetEventsArgs{FromSeq: 100}, &empty))
	require.Empty(empty.Events)
	require.Equal(json.Uint64(100), empty.NextSeq)
}

func TestServiceErrors(t *testing.T) {
	vm := newTestVM(t, memdb.New())
	service := &Service{vm: vm}

	tests := map[string]struct {
		call        func(t *testing.T) error
		expectedErr error
	}{
		"Fail: empty proposer": {
			call: func(*testing.T) error {
				return service.CreateProposal(nil, &CreateProposalArgs{ProposalID: 1}, &api.JSONProposalID{})
			},
		},
		"Fail: missing proposal id": {
			call: func(t *testing.T) error {
				return service.CreateProposal(nil, createArgs(t, proposerKey, 0, "title", nil), &api.JSONProposalID{})
			},
			expectedErr: errMissingProposalID,
		},
		"Fail: title too long": {
			call: func(t *testing.T) error {
				args := createArgs(t, proposerKey, 1, strings.Repeat("t", 300), nil)
				return service.CreateProposal(nil, args, &api.JSONProposalID{})
			},
			expectedErr: dao.ErrTitleTooLong,
		},
		"Fail: invalid voting period": {
			call: func(t *testing.T) error {
				period := json.Uint64(5)
				return service.CreateProposal(nil, createArgs(t, proposerKey, 1, "", &period), &api.JSONProposalID{})
			},
			expectedErr: dao.ErrInvalidVotingPeriod,
		},
		"Fail: unknown proposal": {
			call: func(*testing.T) error {
				return service.GetProposal(nil, &api.JSONProposalID{ProposalID: 42}, &GetProposalReply{})
			},
			expectedErr: dao.ErrProposalNotFound,
		},
		"Fail: votes of unknown proposal": {
			call: func(*testing.T) error {
				return service.GetVotes(nil, &api.JSONProposalID{ProposalID: 42}, &GetVotesReply{})
			},
			expectedErr: dao.ErrProposalNotFound,
		},
		"Fail: vote on unknown proposal": {
			call: func(t *testing.T) error {
				return service.Vote(nil, voteArgs(t, voterKeys[0], 42, true), &api.EmptyReply{})
			},
			expectedErr: dao.ErrProposalNotFound,
		},
		"Fail: bad voter": {
			call: func(*testing.T) error {
				return service.Vote(nil, &VoteArgs{Voter: "D-local1invalid", ProposalID: 1}, &api.EmptyReply{})
			},
		},
		"Fail: bad balance address": {
			call: func(*testing.T) error {
				return service.GetBalance(nil, &api.JSONAddress{}, &GetBalanceReply{})
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			err := tt.call(t)
			require.Error(err)
			if tt.expectedErr != nil {
				require.ErrorIs(err, tt.expectedErr)
			}
		})
	}
}

func TestServiceRejectsForgedCallers(t *testing.T) {
	vm := newTestVM(t, memdb.New())
	service := &Service{vm: vm}

	require.NoError(t, service.CreateProposal(nil, createArgs(t, proposerKey, 1, "title", nil), &api.JSONProposalID{}))
	proposer := formatAddr(t, proposerAddr)
	fujiProposer, err := api.FormatAddress(constants.FujiID, proposerAddr)
	require.NoError(t, err)
	attacker := voterKeys[0]

	tests := map[string]struct {
		call        func(t *testing.T) error
		expectedErr error
	}{
		"Fail: unsigned vote": {
			call: func(t *testing.T) error {
				args := voteArgs(t, attacker, 1, true)
				args.Signature = ""
				return service.Vote(nil, args, &api.EmptyReply{})
			},
			expectedErr: auth.ErrInvalidSignature,
		},
		"Fail: vote for another voter": {
			call: func(t *testing.T) error {
				args := voteArgs(t, attacker, 1, true)
				args.Voter = formatAddr(t, voterAddrs[1])
				return service.Vote(nil, args, &api.EmptyReply{})
			},
			expectedErr: auth.ErrWrongSigner,
		},
		"Fail: flipped vote": {
			call: func(t *testing.T) error {
				args := voteArgs(t, voterKeys[1], 1, true)
				args.InFavor = false
				return service.Vote(nil, args, &api.EmptyReply{})
			},
			expectedErr: auth.ErrWrongSigner,
		},
		"Fail: cancel claiming to be the proposer": {
			call: func(t *testing.T) error {
				args := actionArgs(t, attacker, executor.OpCancelProposal, 1)
				args.Caller = proposer
				return service.CancelProposal(nil, args, &api.EmptyReply{})
			},
			expectedErr: auth.ErrWrongSigner,
		},
		"Fail: cancel as another signer": {
			call: func(t *testing.T) error {
				return service.CancelProposal(nil, actionArgs(t, attacker, executor.OpCancelProposal, 1), &api.EmptyReply{})
			},
			expectedErr: dao.ErrNotProposer,
		},
		"Fail: close signature used to cancel": {
			call: func(t *testing.T) error {
				args := actionArgs(t, proposerKey, executor.OpCloseProposal, 1)
				return service.CancelProposal(nil, args, &api.EmptyReply{})
			},
			expectedErr: auth.ErrWrongSigner,
		},
		"Fail: signed for another network": {
			call: func(t *testing.T) error {
				args := &ProposalActionArgs{Caller: proposer, ProposalID: 1}
				action := args.Action(executor.OpCancelProposal)
				action.NetworkID = constants.FujiID
				args.Signed = signAction(t, proposerKey, action)
				return service.CancelProposal(nil, args, &api.EmptyReply{})
			},
			expectedErr: auth.ErrWrongSigner,
		},
		"Fail: proposer of another network": {
			call: func(t *testing.T) error {
				args := createArgs(t, proposerKey, 2, "title", nil)
				args.Proposer = fujiProposer
				return service.CreateProposal(nil, args, &api.JSONProposalID{})
			},
		},
		"Fail: replayed create": {
			call: func(t *testing.T) error {
				return service.CreateProposal(nil, createArgs(t, proposerKey, 1, "title", nil), &api.JSONProposalID{})
			},
			expectedErr: dao.ErrUnexpectedProposalID,
		},
		"Fail: retitled create": {
			call: func(t *testing.T) error {
				args := createArgs(t, proposerKey, 2, "title", nil)
				args.Title = "other title"
				return service.CreateProposal(nil, args, &api.JSONProposalID{})
			},
			expectedErr: auth.ErrWrongSigner,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			err := tt.call(t)
			require.Error(err)
			if tt.expectedErr != nil {
				require.ErrorIs(err, tt.expectedErr)
			}
		})
	}

	require := require.New(t)
	proposal := GetProposalReply{}
	require.NoError(service.GetProposal(nil, &api.JSONProposalID{ProposalID: 1}, &proposal))
	require.Equal(dao.Active, proposal.Proposal.Status)
	require.Zero(proposal.Proposal.TotalVotes)
	next := api.JSONProposalID{}
	require.NoError(service.GetNextProposalID(nil, &struct{}{}, &next))
	require.Equal(json.Uint64(2), next.ProposalID)
	balance := GetBalanceReply{}
	require.NoError(service.GetBalance(nil, &api.JSONAddress{Address: proposer}, &balance))
	require.Equal(GetBalanceReply{Free: testFunds - 1000, Reserved: 1000}, balance)
}

func TestServiceGetConfig(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t, memdb.New())

	reply := GetConfigReply{}
	require.NoError((&Service{vm: vm}).GetConfig(nil, &struct{}{}, &reply))
	require.Equal(json.Uint64(dao.DefaultConfig.ProposalDeposit), reply.ProposalDeposit)
	require.Equal(json.Uint64(dao.DefaultConfig.MinVotingPeriod), reply.MinVotingPeriod)
	require.Equal(json.Uint32(constants.LocalID), reply.NetworkID)
}
