// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const voteKeyLen = wrappers.LongLen + ids.ShortIDLen

var (
	errWrongVoteKeyLen = errors.New("wrong vote key length")
	errWrongVoteLen    = errors.New("wrong vote value length")
)

type voteKey struct {
	proposalID uint64
	voter      ids.ShortID
}

// Bytes returns proposalID ‖ voter, so that all votes of a proposal share a
// common prefix.
func (k voteKey) Bytes() []byte {
	key := make([]byte, 0, voteKeyLen)
	key = append(key, database.PackUInt64(k.proposalID)...)
	return append(key, k.voter[:]...)
}

func parseVoteKey(key []byte) (voteKey, error) {
	if len(key) != voteKeyLen {
		return voteKey{}, fmt.Errorf("%w: %d", errWrongVoteKeyLen, len(key))
	}
	proposalID, err := database.ParseUInt64(key[:wrappers.LongLen])
	if err != nil {
		return voteKey{}, err
	}
	voter, err := ids.ToShortID(key[wrappers.LongLen:])
	if err != nil {
		return voteKey{}, err
	}
	return voteKey{proposalID: proposalID, voter: voter}, nil
}

func voteBytes(inFavor bool) []byte {
	if inFavor {
		return []byte{1}
	}
	return []byte{0}
}

func parseVote(b []byte) (bool, error) {
	if len(b) != 1 || b[0] > 1 {
		return false, errWrongVoteLen
	}
	return b[0] == 1, nil
}

type activeKey struct {
	votingEnd  uint64
	proposalID uint64
}

func activeKeyOf(proposal *dao.Proposal) activeKey {
	return activeKey{votingEnd: proposal.VotingEnd, proposalID: proposal.ID}
}

func (k activeKey) Less(than activeKey) bool {
	if k.votingEnd != than.votingEnd {
		return k.votingEnd < than.votingEnd
	}
	return k.proposalID < than.proposalID
}
