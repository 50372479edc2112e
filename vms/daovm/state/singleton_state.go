// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"

	"github.com/ava-labs/avalanchego/database"
)

var (
	isInitializedKey  = []byte("initialized")
	lastProposalIDKey = []byte("last proposal id")
	lastEventSeqKey   = []byte("last event seq")
)

type singletonState struct {
	singletonDB database.Database

	lastProposalID          uint64
	persistedLastProposalID uint64
	lastEventSeq            uint64
	persistedLastEventSeq   uint64
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *singletonState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *singletonState) loadSingletons() error {
	lastProposalID, err := getUInt64OrZero(s.singletonDB, lastProposalIDKey)
	if err != nil {
		return fmt.Errorf("failed to load last proposal id: %w", err)
	}
	lastEventSeq, err := getUInt64OrZero(s.singletonDB, lastEventSeqKey)
	if err != nil {
		return fmt.Errorf("failed to load last event seq: %w", err)
	}
	s.lastProposalID, s.persistedLastProposalID = lastProposalID, lastProposalID
	s.lastEventSeq, s.persistedLastEventSeq = lastEventSeq, lastEventSeq
	return nil
}

func (s *singletonState) writeSingletons() error {
	if s.lastProposalID != s.persistedLastProposalID {
		if err := database.PutUInt64(s.singletonDB, lastProposalIDKey, s.lastProposalID); err != nil {
			return fmt.Errorf("failed to write last proposal id: %w", err)
		}
		s.persistedLastProposalID = s.lastProposalID
	}
	if s.lastEventSeq != s.persistedLastEventSeq {
		if err := database.PutUInt64(s.singletonDB, lastEventSeqKey, s.lastEventSeq); err != nil {
			return fmt.Errorf("failed to write last event seq: %w", err)
		}
		s.persistedLastEventSeq = s.lastEventSeq
	}
	return nil
}

func (s *singletonState) abortSingletons() {
	s.lastProposalID = s.persistedLastProposalID
	s.lastEventSeq = s.persistedLastEventSeq
}

func getUInt64OrZero(db database.KeyValueReader, key []byte) (uint64, error) {
	value, err := database.GetUInt64(db, key)
	if err == database.ErrNotFound {
		return 0, nil
	}
	return value, err
}
