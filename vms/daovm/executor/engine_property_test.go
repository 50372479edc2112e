// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const (
	opCreate = iota
	opVote
	opClose
	opExecute
	opCancel
	opAdvance
	numOps
)

// applyOp decodes a random operation from [seed] and runs it. Business
// errors are expected and ignored.
func applyOp(t *testing.T, env *testEnv, seed uint32) {
	accounts := append([]ids.ShortID{proposer}, voters[:3]...)
	account := accounts[(seed>>4)%uint32(len(accounts))]
	proposalID := uint64((seed>>8)%uint32(env.engine.State.GetLastProposalID()+1)) + 1

	switch seed % numOps {
	case opCreate:
		_, _ = env.engine.CreateProposal(account, "title", "", uint64(5+(seed>>12)%10))
	case opVote:
		_ = env.engine.Vote(account, proposalID, (seed>>16)&1 == 1)
	case opClose:
		_, _ = env.engine.CloseProposal(account, proposalID)
	case opExecute:
		_ = env.engine.ExecuteProposal(account, proposalID)
	case opCancel:
		_ = env.engine.CancelProposal(account, proposalID)
	case opAdvance:
		env.advance(t, uint64((seed>>12)%8))
	}
}

func checkInvariants(t *testing.T, env *testEnv) string {
	proposals, err := env.engine.GetProposals()
	if err != nil {
		return err.Error()
	}
	if uint64(len(proposals)) != env.engine.State.GetLastProposalID() {
		return fmt.Sprintf("%d proposals with last id %d", len(proposals), env.engine.State.GetLastProposalID())
	}

	reserved := map[ids.ShortID]uint64{}
	for i, proposal := range proposals {
		if proposal.ID != uint64(i+1) {
			return fmt.Sprintf("proposal ids not contiguous at %d", proposal.ID)
		}
		if err := proposal.Verify(); err != nil {
			return err.Error()
		}
		votes, err := env.engine.GetVotes(proposal.ID)
		if err != nil {
			return err.Error()
		}
		votesFor := uint64(0)
		for _, vote := range votes {
			if vote.InFavor {
				votesFor++
			}
		}
		if uint64(len(votes)) != proposal.TotalVotes || votesFor != proposal.VotesFor {
			return fmt.Sprintf("proposal %d counts %d/%d, ledger has %d/%d",
				proposal.ID, proposal.VotesFor, proposal.TotalVotes, votesFor, len(votes))
		}
		refundable := proposal.Status == dao.Executed || proposal.Status == dao.Cancelled
		if proposal.DepositRefunded != refundable {
			return fmt.Sprintf("proposal %d is %s with refunded=%t", proposal.ID, proposal.Status, proposal.DepositRefunded)
		}
		if !proposal.DepositRefunded {
			reserved[proposal.Proposer] += proposal.Deposit
		}
	}

	for _, addr := range append([]ids.ShortID{proposer}, voters...) {
		balance := env.balance(t, addr)
		if balance.Reserved != reserved[addr] {
			return fmt.Sprintf("%s has %d reserved, expected %d", addr, balance.Reserved, reserved[addr])
		}
		if balance.Free+balance.Reserved != testFunds {
			return fmt.Sprintf("%s balance not conserved: %+v", addr, balance)
		}
	}
	return ""
}

func TestEngineInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("state and balances stay consistent", prop.ForAll(
		func(seeds []uint32) string {
			env := newTestEnv(t, nil)
			for _, seed := range seeds {
				applyOp(t, env, seed)
				if msg := checkInvariants(t, env); msg != "" {
					return msg
				}
			}
			return ""
		},
		gen.SliceOf(gen.UInt32()),
	))

	properties.TestingRun(t)
}
