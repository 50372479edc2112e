// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package daovm

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/utils/crypto/secp256k1"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/chain4travel/caminodao/api"
	"github.com/chain4travel/caminodao/vms/daovm/auth"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
	"github.com/chain4travel/caminodao/vms/daovm/executor"
)

// Endpoint is the path the dao service is served at
const Endpoint = "/ext/" + Name

var _ Client = (*client)(nil)

// Client interface for interacting with the dao endpoint. Addresses are
// bech32 (D-<hrp>1...) or cb58 encoded. State changing calls are signed
// with the caller's [key].
type Client interface {
	// CreateProposal returns the id of the new proposal. A nil
	// [votingPeriod] uses the minimum voting period.
	CreateProposal(ctx context.Context, key *secp256k1.PrivateKey, title, description string, votingPeriod *uint64, options ...rpc.Option) (uint64, error)
	Vote(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, inFavor bool, options ...rpc.Option) error
	// CloseProposal returns the status the proposal was closed with
	CloseProposal(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, options ...rpc.Option) (dao.Status, error)
	ExecuteProposal(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, options ...rpc.Option) error
	CancelProposal(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, options ...rpc.Option) error

	GetProposal(ctx context.Context, proposalID uint64, options ...rpc.Option) (*APIProposal, error)
	// GetProposals returns all proposals if [statuses] is empty
	GetProposals(ctx context.Context, statuses []dao.Status, options ...rpc.Option) ([]APIProposal, error)
	GetClosableProposals(ctx context.Context, options ...rpc.Option) ([]APIProposal, error)
	GetNextProposalID(ctx context.Context, options ...rpc.Option) (uint64, error)
	// GetVote returns whether a vote exists and, if so, whether it is in favor
	GetVote(ctx context.Context, proposalID uint64, voter string, options ...rpc.Option) (bool, bool, error)
	HasVoted(ctx context.Context, proposalID uint64, voter string, options ...rpc.Option) (bool, error)
	GetVotes(ctx context.Context, proposalID uint64, options ...rpc.Option) ([]APIVote, error)
	// GetEvents returns a page of events and the sequence number of the next
	// page
	GetEvents(ctx context.Context, fromSeq uint64, limit uint32, options ...rpc.Option) ([]*dao.EventEnvelope, uint64, error)
	GetBalance(ctx context.Context, addr string, options ...rpc.Option) (*GetBalanceReply, error)
	GetHeight(ctx context.Context, options ...rpc.Option) (uint64, error)
	GetConfig(ctx context.Context, options ...rpc.Option) (*GetConfigReply, error)
}

// Client implementation for interacting with the dao endpoint
type client struct {
	requester rpc.EndpointRequester

	lock      sync.Mutex
	networkID *uint32
}

// NewClient returns a Client for interacting with the dao endpoint of the
// node at [uri]
func NewClient(uri string) Client {
	return &client{requester: rpc.NewEndpointRequester(
		uri + Endpoint,
	)}
}

// sign fills in the network of the node, signs [action] with [key] and
// returns the formatted address of [key].
func (c *client) sign(ctx context.Context, key *secp256k1.PrivateKey, action *auth.Action, options ...rpc.Option) (string, Signed, error) {
	networkID, err := c.getNetworkID(ctx, options...)
	if err != nil {
		return "", Signed{}, err
	}
	addr, err := api.FormatAddress(networkID, key.Address())
	if err != nil {
		return "", Signed{}, err
	}
	action.NetworkID = networkID
	signature, err := action.Sign(key)
	return addr, Signed{Signature: signature}, err
}

func (c *client) getNetworkID(ctx context.Context, options ...rpc.Option) (uint32, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.networkID != nil {
		return *c.networkID, nil
	}
	config, err := c.GetConfig(ctx, options...)
	if err != nil {
		return 0, err
	}
	networkID := uint32(config.NetworkID)
	c.networkID = &networkID
	return networkID, nil
}

func (c *client) CreateProposal(
	ctx context.Context,
	key *secp256k1.PrivateKey,
	title string,
	description string,
	votingPeriod *uint64,
	options ...rpc.Option,
) (uint64, error) {
	proposalID, err := c.GetNextProposalID(ctx, options...)
	if err != nil {
		return 0, err
	}
	args := &CreateProposalArgs{
		ProposalID:  json.Uint64(proposalID),
		Title:       title,
		Description: description,
	}
	if votingPeriod != nil {
		period := json.Uint64(*votingPeriod)
		args.VotingPeriod = &period
	}
	args.Proposer, args.Signed, err = c.sign(ctx, key, args.Action(), options...)
	if err != nil {
		return 0, err
	}
	res := &api.JSONProposalID{}
	err = c.requester.SendRequest(ctx, "dao.createProposal", args, res, options...)
	return uint64(res.ProposalID), err
}

func (c *client) Vote(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, inFavor bool, options ...rpc.Option) error {
	args := &VoteArgs{
		ProposalID: json.Uint64(proposalID),
		InFavor:    inFavor,
	}
	var err error
	args.Voter, args.Signed, err = c.sign(ctx, key, args.Action(), options...)
	if err != nil {
		return err
	}
	return c.requester.SendRequest(ctx, "dao.vote", args, &api.EmptyReply{}, options...)
}

func (c *client) CloseProposal(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, options ...rpc.Option) (dao.Status, error) {
	args, err := c.proposalActionArgs(ctx, key, executor.OpCloseProposal, proposalID, options...)
	if err != nil {
		return 0, err
	}
	res := &CloseProposalReply{}
	err = c.requester.SendRequest(ctx, "dao.closeProposal", args, res, options...)
	return res.Status, err
}

func (c *client) ExecuteProposal(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, options ...rpc.Option) error {
	args, err := c.proposalActionArgs(ctx, key, executor.OpExecuteProposal, proposalID, options...)
	if err != nil {
		return err
	}
	return c.requester.SendRequest(ctx, "dao.executeProposal", args, &api.EmptyReply{}, options...)
}

func (c *client) CancelProposal(ctx context.Context, key *secp256k1.PrivateKey, proposalID uint64, options ...rpc.Option) error {
	args, err := c.proposalActionArgs(ctx, key, executor.OpCancelProposal, proposalID, options...)
	if err != nil {
		return err
	}
	return c.requester.SendRequest(ctx, "dao.cancelProposal", args, &api.EmptyReply{}, options...)
}

func (c *client) proposalActionArgs(
	ctx context.Context,
	key *secp256k1.PrivateKey,
	method string,
	proposalID uint64,
	options ...rpc.Option,
) (*ProposalActionArgs, error) {
	args := &ProposalActionArgs{ProposalID: json.Uint64(proposalID)}
	var err error
	args.Caller, args.Signed, err = c.sign(ctx, key, args.Action(method), options...)
	return args, err
}

func (c *client) GetNextProposalID(ctx context.Context, options ...rpc.Option) (uint64, error) {
	res := &api.JSONProposalID{}
	err := c.requester.SendRequest(ctx, "dao.getNextProposalID", struct{}{}, res, options...)
	return uint64(res.ProposalID), err
}

func (c *client) GetProposal(ctx context.Context, proposalID uint64, options ...rpc.Option) (*APIProposal, error) {
	res := &GetProposalReply{}
	err := c.requester.SendRequest(ctx, "dao.getProposal", &api.JSONProposalID{
		ProposalID: json.Uint64(proposalID),
	}, res, options...)
	return &res.Proposal, err
}

func (c *client) GetProposals(ctx context.Context, statuses []dao.Status, options ...rpc.Option) ([]APIProposal, error) {
	res := &GetProposalsReply{}
	err := c.requester.SendRequest(ctx, "dao.getProposals", &GetProposalsArgs{
		Statuses: statuses,
	}, res, options...)
	return res.Proposals, err
}

func (c *client) GetClosableProposals(ctx context.Context, options ...rpc.Option) ([]APIProposal, error) {
	res := &GetProposalsReply{}
	err := c.requester.SendRequest(ctx, "dao.getClosableProposals", struct{}{}, res, options...)
	return res.Proposals, err
}

func (c *client) GetVote(ctx context.Context, proposalID uint64, voter string, options ...rpc.Option) (bool, bool, error) {
	res := &GetVoteReply{}
	err := c.requester.SendRequest(ctx, "dao.getVote", &GetVoteArgs{
		ProposalID: json.Uint64(proposalID),
		Voter:      voter,
	}, res, options...)
	if err != nil || !res.Voted || res.InFavor == nil {
		return false, false, err
	}
	return true, *res.InFavor, nil
}

func (c *client) HasVoted(ctx context.Context, proposalID uint64, voter string, options ...rpc.Option) (bool, error) {
	res := &HasVotedReply{}
	err := c.requester.SendRequest(ctx, "dao.hasVoted", &GetVoteArgs{
		ProposalID: json.Uint64(proposalID),
		Voter:      voter,
	}, res, options...)
	return res.HasVoted, err
}

func (c *client) GetVotes(ctx context.Context, proposalID uint64, options ...rpc.Option) ([]APIVote, error) {
	res := &GetVotesReply{}
	err := c.requester.SendRequest(ctx, "dao.getVotes", &api.JSONProposalID{
		ProposalID: json.Uint64(proposalID),
	}, res, options...)
	return res.Votes, err
}

func (c *client) GetEvents(ctx context.Context, fromSeq uint64, limit uint32, options ...rpc.Option) ([]*dao.EventEnvelope, uint64, error) {
	res := &GetEventsReply{}
	err := c.requester.SendRequest(ctx, "dao.getEvents", &GetEventsArgs{
		FromSeq: json.Uint64(fromSeq),
		Limit:   json.Uint32(limit),
	}, res, options...)
	return res.Events, uint64(res.NextSeq), err
}

func (c *client) GetBalance(ctx context.Context, addr string, options ...rpc.Option) (*GetBalanceReply, error) {
	res := &GetBalanceReply{}
	err := c.requester.SendRequest(ctx, "dao.getBalance", &api.JSONAddress{
		Address: addr,
	}, res, options...)
	return res, err
}

func (c *client) GetHeight(ctx context.Context, options ...rpc.Option) (uint64, error) {
	res := &api.JSONHeight{}
	err := c.requester.SendRequest(ctx, "dao.getHeight", struct{}{}, res, options...)
	return uint64(res.Height), err
}

func (c *client) GetConfig(ctx context.Context, options ...rpc.Option) (*GetConfigReply, error) {
	res := &GetConfigReply{}
	err := c.requester.SendRequest(ctx, "dao.getConfig", struct{}{}, res, options...)
	return res, err
}
