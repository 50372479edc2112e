// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/google/btree"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const (
	proposalCacheSize = 1024
	activeTreeDegree  = 16
)

var (
	_ State = (*state)(nil)

	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	proposalPrefix  = []byte("proposal")
	votePrefix      = []byte("vote")
	hasVotedPrefix  = []byte("hasVoted")
	eventPrefix     = []byte("event")
	singletonPrefix = []byte("singleton")

	errProposalIDOverflow = errors.New("proposal id space exhausted")
	errEventSeqOverflow   = errors.New("event sequence exhausted")
)

// ProposalStore is the keyed storage of proposal records.
type ProposalStore interface {
	// GetProposal returns a copy of the proposal or database.ErrNotFound.
	GetProposal(proposalID uint64) (*dao.Proposal, error)
	PutProposal(proposal *dao.Proposal)
	// UpdateProposal loads the proposal, applies [update] to it and stages
	// the result. Nothing is staged if [update] fails.
	UpdateProposal(proposalID uint64, update func(*dao.Proposal) error) error
	// NextProposalID reserves the next id. The reservation is only persisted
	// together with the rest of the staged changes.
	NextProposalID() (uint64, error)
	GetLastProposalID() uint64
}

// VoteLedger stores one vote per (proposal, voter) together with a separate
// existence record.
type VoteLedger interface {
	HasVoted(proposalID uint64, voter ids.ShortID) (bool, error)
	GetVote(proposalID uint64, voter ids.ShortID) (inFavor bool, found bool, err error)
	// RecordVote fails with dao.ErrAlreadyVoted if the voter already voted.
	RecordVote(proposalID uint64, voter ids.ShortID, inFavor bool) error
}

type EventLog interface {
	GetLastEventSeq() uint64
	// AddEvent appends [event] to the log and returns it with its sequence
	// number assigned.
	AddEvent(height uint64, event dao.Event) (*dao.EventEnvelope, error)
}

type Chain interface {
	ProposalStore
	VoteLedger
	EventLog
}

// State is the committed governance state. Queries only see data that was
// written by the last Commit.
type State interface {
	Chain

	IsInitialized() (bool, error)
	SetInitialized() error

	// GetProposals returns proposals ordered by id. If [statuses] is empty,
	// all proposals are returned.
	GetProposals(statuses ...dao.Status) ([]*dao.Proposal, error)
	// GetClosableProposals returns active proposals whose voting period
	// ended at [height], ordered by voting end.
	GetClosableProposals(height uint64) ([]*dao.Proposal, error)
	// NumActiveProposals returns the number of committed active proposals.
	NumActiveProposals() int
	GetVotes(proposalID uint64) ([]*dao.VoteWithAddr, error)
	// GetEvents returns up to [limit] events starting at sequence [fromSeq].
	GetEvents(fromSeq uint64, limit int) ([]*dao.EventEnvelope, error)

	Abort()
	Commit() error
	CommitBatch() (database.Batch, error)
	Close() error
}

type state struct {
	singletonState

	baseDB *versiondb.Database

	proposalDB    database.Database
	proposalCache cache.Cacher[uint64, *dao.Proposal] // nil entry means not in db
	// active proposals keyed by (votingEnd, id)
	activeProposals   *btree.BTreeG[activeKey]
	modifiedProposals map[uint64]*dao.Proposal

	voteDB     database.Database
	hasVotedDB database.Database
	addedVotes map[voteKey]bool

	eventDB     database.Database
	addedEvents []*dao.EventEnvelope
}

// NewState loads the state from [baseDB]. Anything else written to [baseDB]
// is committed and aborted together with the state.
func NewState(baseDB *versiondb.Database, metricsReg prometheus.Registerer) (State, error) {
	proposalCache, err := metercacher.New[uint64, *dao.Proposal](
		"proposal_cache",
		metricsReg,
		&cache.LRU[uint64, *dao.Proposal]{Size: proposalCacheSize},
	)
	if err != nil {
		return nil, err
	}

	s := &state{
		singletonState: singletonState{
			singletonDB: prefixdb.New(singletonPrefix, baseDB),
		},
		baseDB: baseDB,

		proposalDB:        prefixdb.New(proposalPrefix, baseDB),
		proposalCache:     proposalCache,
		activeProposals:   btree.NewG(activeTreeDegree, activeKey.Less),
		modifiedProposals: make(map[uint64]*dao.Proposal),

		voteDB:     prefixdb.New(votePrefix, baseDB),
		hasVotedDB: prefixdb.New(hasVotedPrefix, baseDB),
		addedVotes: make(map[voteKey]bool),

		eventDB: prefixdb.New(eventPrefix, baseDB),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *state) load() error {
	errs := wrappers.Errs{}
	errs.Add(
		s.loadSingletons(),
		s.loadActiveProposals(),
	)
	return errs.Err
}

func (s *state) reload() error {
	s.proposalCache.Flush()
	s.activeProposals.Clear(false)
	return s.load()
}

func (s *state) loadActiveProposals() error {
	it := s.proposalDB.NewIterator()
	defer it.Release()

	for it.Next() {
		proposal := &dao.Proposal{}
		if _, err := dao.Codec.Unmarshal(it.Value(), proposal); err != nil {
			return fmt.Errorf("failed to unmarshal proposal while loading from db: %w", err)
		}
		if proposal.IsActive() {
			s.activeProposals.ReplaceOrInsert(activeKeyOf(proposal))
		}
	}
	return it.Error()
}

func (s *state) GetProposal(proposalID uint64) (*dao.Proposal, error) {
	if proposal, ok := s.modifiedProposals[proposalID]; ok {
		return proposal.Copy(), nil
	}
	proposal, err := s.getCommittedProposal(proposalID)
	if err != nil {
		return nil, err
	}
	return proposal.Copy(), nil
}

func (s *state) getCommittedProposal(proposalID uint64) (*dao.Proposal, error) {
	if proposal, cached := s.proposalCache.Get(proposalID); cached {
		if proposal == nil {
			return nil, database.ErrNotFound
		}
		return proposal, nil
	}

	proposalBytes, err := s.proposalDB.Get(database.PackUInt64(proposalID))
	if err == database.ErrNotFound {
		s.proposalCache.Put(proposalID, nil)
		return nil, database.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	proposal := &dao.Proposal{}
	if _, err := dao.Codec.Unmarshal(proposalBytes, proposal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proposal %d: %w", proposalID, err)
	}
	s.proposalCache.Put(proposalID, proposal)
	return proposal, nil
}

func (s *state) PutProposal(proposal *dao.Proposal) {
	s.modifiedProposals[proposal.ID] = proposal.Copy()
}

func (s *state) UpdateProposal(proposalID uint64, update func(*dao.Proposal) error) error {
	return updateProposal(s, proposalID, update)
}

func (s *state) NextProposalID() (uint64, error) {
	if s.lastProposalID == ^uint64(0) {
		return 0, errProposalIDOverflow
	}
	s.lastProposalID++
	return s.lastProposalID, nil
}

func (s *state) GetLastProposalID() uint64 {
	return s.lastProposalID
}

func (s *state) HasVoted(proposalID uint64, voter ids.ShortID) (bool, error) {
	key := voteKey{proposalID: proposalID, voter: voter}
	if _, ok := s.addedVotes[key]; ok {
		return true, nil
	}
	return s.hasVotedDB.Has(key.Bytes())
}

func (s *state) GetVote(proposalID uint64, voter ids.ShortID) (bool, bool, error) {
	key := voteKey{proposalID: proposalID, voter: voter}
	if inFavor, ok := s.addedVotes[key]; ok {
		return inFavor, true, nil
	}
	voteBytes, err := s.voteDB.Get(key.Bytes())
	switch {
	case err == database.ErrNotFound:
		return false, false, nil
	case err != nil:
		return false, false, err
	}
	inFavor, err := parseVote(voteBytes)
	return inFavor, err == nil, err
}

func (s *state) RecordVote(proposalID uint64, voter ids.ShortID, inFavor bool) error {
	hasVoted, err := s.HasVoted(proposalID, voter)
	if err != nil {
		return err
	}
	if hasVoted {
		return dao.ErrAlreadyVoted
	}
	s.addedVotes[voteKey{proposalID: proposalID, voter: voter}] = inFavor
	return nil
}

func (s *state) GetLastEventSeq() uint64 {
	return s.lastEventSeq
}

func (s *state) AddEvent(height uint64, event dao.Event) (*dao.EventEnvelope, error) {
	if s.lastEventSeq == ^uint64(0) {
		return nil, errEventSeqOverflow
	}
	s.lastEventSeq++
	envelope := &dao.EventEnvelope{
		Seq:    s.lastEventSeq,
		Height: height,
		Event:  event,
	}
	s.addedEvents = append(s.addedEvents, envelope)
	return envelope, nil
}

func (s *state) GetProposals(statuses ...dao.Status) ([]*dao.Proposal, error) {
	it := s.proposalDB.NewIterator()
	defer it.Release()

	proposals := []*dao.Proposal{}
	for it.Next() {
		proposal := &dao.Proposal{}
		if _, err := dao.Codec.Unmarshal(it.Value(), proposal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal proposal: %w", err)
		}
		if len(statuses) == 0 || slices.Contains(statuses, proposal.Status) {
			proposals = append(proposals, proposal)
		}
	}
	return proposals, it.Error()
}

func (s *state) GetClosableProposals(height uint64) ([]*dao.Proposal, error) {
	var (
		proposals []*dao.Proposal
		err       error
	)
	s.activeProposals.Ascend(func(key activeKey) bool {
		if key.votingEnd > height {
			return false
		}
		var proposal *dao.Proposal
		proposal, err = s.getCommittedProposal(key.proposalID)
		if err != nil {
			err = fmt.Errorf("failed to get active proposal %d: %w", key.proposalID, err)
			return false
		}
		proposals = append(proposals, proposal.Copy())
		return true
	})
	return proposals, err
}

func (s *state) NumActiveProposals() int {
	return s.activeProposals.Len()
}

func (s *state) GetVotes(proposalID uint64) ([]*dao.VoteWithAddr, error) {
	it := s.voteDB.NewIteratorWithPrefix(database.PackUInt64(proposalID))
	defer it.Release()

	votes := []*dao.VoteWithAddr{}
	for it.Next() {
		key, err := parseVoteKey(it.Key())
		if err != nil {
			return nil, err
		}
		inFavor, err := parseVote(it.Value())
		if err != nil {
			return nil, err
		}
		votes = append(votes, &dao.VoteWithAddr{
			Vote:  dao.Vote{InFavor: inFavor},
			Voter: key.voter,
		})
	}
	return votes, it.Error()
}

func (s *state) GetEvents(fromSeq uint64, limit int) ([]*dao.EventEnvelope, error) {
	it := s.eventDB.NewIteratorWithStart(database.PackUInt64(fromSeq))
	defer it.Release()

	events := []*dao.EventEnvelope{}
	for len(events) < limit && it.Next() {
		event := &dao.EventEnvelope{}
		if _, err := dao.Codec.Unmarshal(it.Value(), event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, event)
	}
	return events, it.Error()
}

// Commit commits pending operations to baseDB. If the commit fails, the
// in-memory indices are rebuilt from the last committed state.
func (s *state) Commit() error {
	defer s.Abort()
	batch, err := s.CommitBatch()
	if err == nil {
		err = batch.Write()
	}
	if err != nil {
		s.Abort()
		if reloadErr := s.reload(); reloadErr != nil {
			return fmt.Errorf("%w (failed to reload state: %v)", err, reloadErr)
		}
		return err
	}
	return nil
}

func (s *state) CommitBatch() (database.Batch, error) {
	if err := s.write(); err != nil {
		return nil, err
	}
	return s.baseDB.CommitBatch()
}

func (s *state) write() error {
	errs := wrappers.Errs{}
	errs.Add(
		s.writeProposals(),
		s.writeVotes(),
		s.writeEvents(),
		s.writeSingletons(),
	)
	return errs.Err
}

func (s *state) writeProposals() error {
	for proposalID, proposal := range s.modifiedProposals {
		proposalBytes, err := dao.Codec.Marshal(dao.CodecVersion, proposal)
		if err != nil {
			return fmt.Errorf("failed to serialize proposal %d: %w", proposalID, err)
		}

		delete(s.modifiedProposals, proposalID)
		s.proposalCache.Put(proposalID, proposal)
		if proposal.IsActive() {
			s.activeProposals.ReplaceOrInsert(activeKeyOf(proposal))
		} else {
			s.activeProposals.Delete(activeKeyOf(proposal))
		}
		if err := s.proposalDB.Put(database.PackUInt64(proposalID), proposalBytes); err != nil {
			return fmt.Errorf("failed to write proposal %d: %w", proposalID, err)
		}
	}
	return nil
}

func (s *state) writeVotes() error {
	for key, inFavor := range s.addedVotes {
		delete(s.addedVotes, key)

		keyBytes := key.Bytes()
		if err := s.voteDB.Put(keyBytes, voteBytes(inFavor)); err != nil {
			return fmt.Errorf("failed to write vote: %w", err)
		}
		if err := s.hasVotedDB.Put(keyBytes, nil); err != nil {
			return fmt.Errorf("failed to write vote marker: %w", err)
		}
	}
	return nil
}

func (s *state) writeEvents() error {
	for _, event := range s.addedEvents {
		eventBytes, err := dao.Codec.Marshal(dao.CodecVersion, event)
		if err != nil {
			return fmt.Errorf("failed to serialize event %d: %w", event.Seq, err)
		}
		if err := s.eventDB.Put(database.PackUInt64(event.Seq), eventBytes); err != nil {
			return fmt.Errorf("failed to write event %d: %w", event.Seq, err)
		}
	}
	s.addedEvents = nil
	return nil
}

// Abort drops everything that has been staged since the last commit.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.abortSingletons()
	s.addedEvents = nil
	for proposalID := range s.modifiedProposals {
		delete(s.modifiedProposals, proposalID)
	}
	for key := range s.addedVotes {
		delete(s.addedVotes, key)
	}
}

// Close closes the underlying base database
func (s *state) Close() error {
	errs := wrappers.Errs{}
	errs.Add(
		s.proposalDB.Close(),
		s.voteDB.Close(),
		s.hasVotedDB.Close(),
		s.eventDB.Close(),
		s.singletonDB.Close(),
		s.baseDB.Close(),
	)
	return errs.Err
}

func updateProposal(chain ProposalStore, proposalID uint64, update func(*dao.Proposal) error) error {
	proposal, err := chain.GetProposal(proposalID)
	if err == database.ErrNotFound {
		return fmt.Errorf("%w: %d", dao.ErrProposalNotFound, proposalID)
	} else if err != nil {
		return err
	}
	if err := update(proposal); err != nil {
		return err
	}
	chain.PutProposal(proposal)
	return nil
}
