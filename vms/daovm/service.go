// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package daovm

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/chain4travel/caminodao/api"
	"github.com/chain4travel/caminodao/vms/daovm/auth"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/executor"
)

var errMissingProposalID = errors.New("missing proposal id")

// Service is the API service for this VM
type Service struct {
	vm *VM
}

// APIProposal is the API representation of a proposal
type APIProposal struct {
	ID          json.Uint64 `json:"id"`
	Proposer    string      `json:"proposer"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CreatedAt   json.Uint64 `json:"createdAt"`
	VotingStart json.Uint64 `json:"votingStart"`
	VotingEnd   json.Uint64 `json:"votingEnd"`
	Status      dao.Status  `json:"status"`

	VotesFor           json.Uint64 `json:"votesFor"`
	VotesAgainst       json.Uint64 `json:"votesAgainst"`
	TotalVotes         json.Uint64 `json:"totalVotes"`
	ApprovalPercentage json.Uint32 `json:"approvalPercentage"`

	Executed bool `json:"executed"`
	// Only set if the proposal was executed
	ExecutedAt *json.Uint64 `json:"executedAt,omitempty"`

	Deposit         json.Uint64 `json:"deposit"`
	DepositRefunded bool        `json:"depositRefunded"`
}

func (s *Service) toAPIProposal(proposal *dao.Proposal) (APIProposal, error) {
	proposer, err := api.FormatAddress(s.vm.NetworkID, proposal.Proposer)
	if err != nil {
		return APIProposal{}, fmt.Errorf("couldn't format proposer address: %w", err)
	}
	apiProposal := APIProposal{
		ID:                 json.Uint64(proposal.ID),
		Proposer:           proposer,
		Title:              proposal.Title,
		Description:        proposal.Description,
		CreatedAt:          json.Uint64(proposal.CreatedAt),
		VotingStart:        json.Uint64(proposal.VotingStart),
		VotingEnd:          json.Uint64(proposal.VotingEnd),
		Status:             proposal.Status,
		VotesFor:           json.Uint64(proposal.VotesFor),
		VotesAgainst:       json.Uint64(proposal.VotesAgainst),
		TotalVotes:         json.Uint64(proposal.TotalVotes),
		ApprovalPercentage: json.Uint32(proposal.ApprovalPercentage()),
		Executed:           proposal.Executed,
		Deposit:            json.Uint64(proposal.Deposit),
		DepositRefunded:    proposal.DepositRefunded,
	}
	if proposal.Executed {
		executedAt := json.Uint64(proposal.ExecutedAt)
		apiProposal.ExecutedAt = &executedAt
	}
	return apiProposal, nil
}

func (s *Service) toAPIProposals(proposals []*dao.Proposal) ([]APIProposal, error) {
	apiProposals := make([]APIProposal, len(proposals))
	for i, proposal := range proposals {
		apiProposal, err := s.toAPIProposal(proposal)
		if err != nil {
			return nil, err
		}
		apiProposals[i] = apiProposal
	}
	return apiProposals, nil
}

func (s *Service) logCall(method string, fields ...zap.Field) {
	s.vm.log.Debug("API called",
		append([]zap.Field{
			zap.String("service", Name),
			zap.String("method", method),
		}, fields...)...,
	)
}

// authenticate parses [addrStr] and checks that its key signed [action].
func (s *Service) authenticate(addrStr string, action *auth.Action, signature string) (ids.ShortID, error) {
	addr, err := api.ParseAddress(s.vm.NetworkID, addrStr)
	if err != nil {
		return ids.ShortEmpty, err
	}
	action.NetworkID = s.vm.NetworkID
	if err := action.Verify(addr, signature); err != nil {
		return ids.ShortEmpty, err
	}
	return addr, nil
}

// Signed is embedded in the arguments of every state changing call.
type Signed struct {
	// Hex encoded signature of the caller's key over the request, see
	// auth.Action
	Signature string `json:"signature"`
}

type CreateProposalArgs struct {
	Signed
	Proposer string `json:"proposer"`
	// Id the proposal must get, see getNextProposalID. Requests for an id
	// that was already assigned fail, so a signed request can't be replayed.
	ProposalID  json.Uint64 `json:"proposalID"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	// Number of blocks the proposal is open for voting. Defaults to the
	// minimum voting period.
	VotingPeriod *json.Uint64 `json:"votingPeriod"`
}

func (args *CreateProposalArgs) Action() *auth.Action {
	action := &auth.Action{
		Method:      executor.OpCreateProposal,
		ProposalID:  uint64(args.ProposalID),
		Title:       args.Title,
		Description: args.Description,
	}
	if args.VotingPeriod != nil {
		action.VotingPeriod = uint64(*args.VotingPeriod)
	}
	return action
}

// CreateProposal opens a new proposal and reserves the proposal deposit from
// the proposer.
func (s *Service) CreateProposal(_ *http.Request, args *CreateProposalArgs, reply *api.JSONProposalID) error {
	s.logCall("createProposal", zap.Uint64("proposalID", uint64(args.ProposalID)))

	if args.ProposalID == 0 {
		return errMissingProposalID
	}
	proposer, err := s.authenticate(args.Proposer, args.Action(), args.Signature)
	if err != nil {
		return fmt.Errorf("couldn't authenticate proposer: %w", err)
	}
	votingPeriod := s.vm.MinVotingPeriod
	if args.VotingPeriod != nil {
		votingPeriod = uint64(*args.VotingPeriod)
	}

	proposalID, err := s.vm.engine.CreateProposalWithID(
		uint64(args.ProposalID),
		proposer,
		args.Title,
		args.Description,
		votingPeriod,
	)
	if err != nil {
		return err
	}
	reply.ProposalID = json.Uint64(proposalID)
	return nil
}

// GetNextProposalID returns the id the next proposal gets
func (s *Service) GetNextProposalID(_ *http.Request, _ *struct{}, reply *api.JSONProposalID) error {
	s.logCall("getNextProposalID")

	reply.ProposalID = json.Uint64(s.vm.engine.GetNextProposalID())
	return nil
}

type VoteArgs struct {
	Signed
	Voter      string      `json:"voter"`
	ProposalID json.Uint64 `json:"proposalID"`
	InFavor    bool        `json:"inFavor"`
}

func (args *VoteArgs) Action() *auth.Action {
	return &auth.Action{
		Method:     executor.OpVote,
		ProposalID: uint64(args.ProposalID),
		InFavor:    args.InFavor,
	}
}

// Vote casts a vote on an active proposal
func (s *Service) Vote(_ *http.Request, args *VoteArgs, _ *api.EmptyReply) error {
	s.logCall("vote", zap.Uint64("proposalID", uint64(args.ProposalID)))

	voter, err := s.authenticate(args.Voter, args.Action(), args.Signature)
	if err != nil {
		return fmt.Errorf("couldn't authenticate voter: %w", err)
	}
	return s.vm.engine.Vote(voter, uint64(args.ProposalID), args.InFavor)
}

type ProposalActionArgs struct {
	Signed
	Caller     string      `json:"caller"`
	ProposalID json.Uint64 `json:"proposalID"`
}

// Action returns the signed part of a [method] call.
func (args *ProposalActionArgs) Action(method string) *auth.Action {
	return &auth.Action{
		Method:     method,
		ProposalID: uint64(args.ProposalID),
	}
}

type CloseProposalReply struct {
	Status dao.Status `json:"status"`
}

// CloseProposal resolves a proposal whose voting period ended
func (s *Service) CloseProposal(_ *http.Request, args *ProposalActionArgs, reply *CloseProposalReply) error {
	s.logCall("closeProposal", zap.Uint64("proposalID", uint64(args.ProposalID)))

	caller, err := s.authenticate(args.Caller, args.Action(executor.OpCloseProposal), args.Signature)
	if err != nil {
		return fmt.Errorf("couldn't authenticate caller: %w", err)
	}
	reply.Status, err = s.vm.engine.CloseProposal(caller, uint64(args.ProposalID))
	return err
}

// ExecuteProposal executes an approved proposal and refunds its deposit
func (s *Service) ExecuteProposal(_ *http.Request, args *ProposalActionArgs, _ *api.EmptyReply) error {
	s.logCall("executeProposal", zap.Uint64("proposalID", uint64(args.ProposalID)))

	caller, err := s.authenticate(args.Caller, args.Action(executor.OpExecuteProposal), args.Signature)
	if err != nil {
		return fmt.Errorf("couldn't authenticate caller: %w", err)
	}
	return s.vm.engine.ExecuteProposal(caller, uint64(args.ProposalID))
}

// CancelProposal withdraws an active proposal, only the proposer can do
// this.
func (s *Service) CancelProposal(_ *http.Request, args *ProposalActionArgs, _ *api.EmptyReply) error {
	s.logCall("cancelProposal", zap.Uint64("proposalID", uint64(args.ProposalID)))

	caller, err := s.authenticate(args.Caller, args.Action(executor.OpCancelProposal), args.Signature)
	if err != nil {
		return fmt.Errorf("couldn't authenticate caller: %w", err)
	}
	return s.vm.engine.CancelProposal(caller, uint64(args.ProposalID))
}

type GetProposalReply struct {
	Proposal APIProposal `json:"proposal"`
}

func (s *Service) GetProposal(_ *http.Request, args *api.JSONProposalID, reply *GetProposalReply) error {
	s.logCall("getProposal", zap.Uint64("proposalID", uint64(args.ProposalID)))

	proposal, err := s.vm.engine.GetProposal(uint64(args.ProposalID))
	if err != nil {
		return err
	}
	reply.Proposal, err = s.toAPIProposal(proposal)
	return err
}

type GetProposalsArgs struct {
	// Empty means all statuses
	Statuses []dao.Status `json:"statuses"`
}

type GetProposalsReply struct {
	Proposals []APIProposal `json:"proposals"`
}

// GetProposals returns the proposals with one of the requested statuses,
// ordered by id.
func (s *Service) GetProposals(_ *http.Request, args *GetProposalsArgs, reply *GetProposalsReply) error {
	s.logCall("getProposals")

	proposals, err := s.vm.engine.GetProposals(args.Statuses...)
	if err != nil {
		return err
	}
	reply.Proposals, err = s.toAPIProposals(proposals)
	return err
}

// GetClosableProposals returns the active proposals whose voting period
// ended, ordered by voting end.
func (s *Service) GetClosableProposals(_ *http.Request, _ *struct{}, reply *GetProposalsReply) error {
	s.logCall("getClosableProposals")

	proposals, err := s.vm.engine.GetClosableProposals()
	if err != nil {
		return err
	}
	reply.Proposals, err = s.toAPIProposals(proposals)
	return err
}

type GetVoteArgs struct {
	ProposalID json.Uint64 `json:"proposalID"`
	Voter      string      `json:"voter"`
}

type GetVoteReply struct {
	Voted bool `json:"voted"`
	// Only set if voted
	InFavor *bool `json:"inFavor,omitempty"`
}

func (s *Service) GetVote(_ *http.Request, args *GetVoteArgs, reply *GetVoteReply) error {
	s.logCall("getVote", zap.Uint64("proposalID", uint64(args.ProposalID)))

	voter, err := api.ParseAddress(s.vm.NetworkID, args.Voter)
	if err != nil {
		return fmt.Errorf("couldn't parse voter: %w", err)
	}
	inFavor, found, err := s.vm.engine.GetVote(uint64(args.ProposalID), voter)
	if err != nil {
		return err
	}
	reply.Voted = found
	if found {
		reply.InFavor = &inFavor
	}
	return nil
}

type HasVotedReply struct {
	HasVoted bool `json:"hasVoted"`
}

func (s *Service) HasVoted(_ *http.Request, args *GetVoteArgs, reply *HasVotedReply) error {
	s.logCall("hasVoted", zap.Uint64("proposalID", uint64(args.ProposalID)))

	voter, err := api.ParseAddress(s.vm.NetworkID, args.Voter)
	if err != nil {
		return fmt.Errorf("couldn't parse voter: %w", err)
	}
	reply.HasVoted, err = s.vm.engine.HasVoted(uint64(args.ProposalID), voter)
	return err
}

type APIVote struct {
	Voter   string `json:"voter"`
	InFavor bool   `json:"inFavor"`
}

type GetVotesReply struct {
	Votes []APIVote `json:"votes"`
}

// GetVotes returns all votes cast on a proposal
func (s *Service) GetVotes(_ *http.Request, args *api.JSONProposalID, reply *GetVotesReply) error {
	s.logCall("getVotes", zap.Uint64("proposalID", uint64(args.ProposalID)))

	votes, err := s.vm.engine.GetVotes(uint64(args.ProposalID))
	if err != nil {
		return err
	}
	reply.Votes = make([]APIVote, len(votes))
	for i, vote := range votes {
		voter, err := api.FormatAddress(s.vm.NetworkID, vote.Voter)
		if err != nil {
			return fmt.Errorf("couldn't format voter address: %w", err)
		}
		reply.Votes[i] = APIVote{
			Voter:   voter,
			InFavor: vote.InFavor,
		}
	}
	return nil
}

type GetEventsArgs struct {
	// Sequence number of the first event, events start at 1
	FromSeq json.Uint64 `json:"fromSeq"`
	// Maximum number of events, 0 means the server maximum
	Limit json.Uint32 `json:"limit"`
}

type GetEventsReply struct {
	Events []*dao.EventEnvelope `json:"events"`
	// Sequence number to continue paging from
	NextSeq json.Uint64 `json:"nextSeq"`
}

// GetEvents pages through the event log
func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	s.logCall("getEvents", zap.Uint64("fromSeq", uint64(args.FromSeq)))

	fromSeq := uint64(args.FromSeq)
	if fromSeq == 0 {
		fromSeq = 1
	}
	events, err := s.vm.engine.GetEvents(fromSeq, int(args.Limit))
	if err != nil {
		return err
	}
	reply.Events = events
	reply.NextSeq = json.Uint64(fromSeq)
	if len(events) > 0 {
		reply.NextSeq = json.Uint64(events[len(events)-1].Seq + 1)
	}
	return nil
}

type GetBalanceReply struct {
	Free     json.Uint64 `json:"free"`
	Reserved json.Uint64 `json:"reserved"`
}

// GetBalance returns the free and reserved balance of an address
func (s *Service) GetBalance(_ *http.Request, args *api.JSONAddress, reply *GetBalanceReply) error {
	s.logCall("getBalance")

	addr, err := api.ParseAddress(s.vm.NetworkID, args.Address)
	if err != nil {
		return fmt.Errorf("couldn't parse address: %w", err)
	}
	balance, err := s.vm.engine.GetBalance(addr)
	if err != nil {
		return err
	}
	reply.Free = json.Uint64(balance.Free)
	reply.Reserved = json.Uint64(balance.Reserved)
	return nil
}

// GetHeight returns the current block height
func (s *Service) GetHeight(_ *http.Request, _ *struct{}, reply *api.JSONHeight) error {
	s.logCall("getHeight")

	reply.Height = json.Uint64(s.vm.engine.Height())
	return nil
}

type GetConfigReply struct {
	MaxTitleLength       json.Uint32 `json:"maxTitleLength"`
	MaxDescriptionLength json.Uint32 `json:"maxDescriptionLength"`
	MinVotingPeriod      json.Uint64 `json:"minVotingPeriod"`
	MaxVotingPeriod      json.Uint64 `json:"maxVotingPeriod"`
	ProposalDeposit      json.Uint64 `json:"proposalDeposit"`
	NetworkID            json.Uint32 `json:"networkID"`
}

// GetConfig returns the governance parameters
func (s *Service) GetConfig(_ *http.Request, _ *struct{}, reply *GetConfigReply) error {
	s.logCall("getConfig")

	reply.MaxTitleLength = json.Uint32(s.vm.MaxTitleLength)
	reply.MaxDescriptionLength = json.Uint32(s.vm.MaxDescriptionLength)
	reply.MinVotingPeriod = json.Uint64(s.vm.MinVotingPeriod)
	reply.MaxVotingPeriod = json.Uint64(s.vm.MaxVotingPeriod)
	reply.ProposalDeposit = json.Uint64(s.vm.ProposalDeposit)
	reply.NetworkID = json.Uint32(s.vm.NetworkID)
	return nil
}
