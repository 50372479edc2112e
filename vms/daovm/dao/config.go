// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"errors"
	"fmt"
)

var (
	errZeroMinVotingPeriod  = errors.New("minimum voting period must be greater than zero")
	errVotingPeriodBounds   = errors.New("minimum voting period is greater than maximum voting period")
	errZeroTitleLength      = errors.New("maximum title length must be greater than zero")
	errZeroProposalDeposit  = errors.New("proposal deposit must be greater than zero")
	errZeroDescriptionLimit = errors.New("maximum description length must be greater than zero")
)

// DefaultConfig mirrors the limits the governance runtime was launched with.
var DefaultConfig = Config{
	MaxTitleLength:       256,
	MaxDescriptionLength: 2048,
	MinVotingPeriod:      10,
	MaxVotingPeriod:      1000,
	ProposalDeposit:      1000,
}

type Config struct {
	// Maximum length of a proposal title in bytes
	MaxTitleLength uint32 `json:"maxTitleLength"`
	// Maximum length of a proposal description in bytes
	MaxDescriptionLength uint32 `json:"maxDescriptionLength"`
	// Minimum number of blocks a voting period has to be open
	MinVotingPeriod uint64 `json:"minVotingPeriod"`
	// Maximum number of blocks a voting period can be open
	MaxVotingPeriod uint64 `json:"maxVotingPeriod"`
	// Amount reserved from the proposer for every created proposal
	ProposalDeposit uint64 `json:"proposalDeposit"`
}

func (c Config) Verify() error {
	switch {
	case c.MaxTitleLength == 0:
		return errZeroTitleLength
	case c.MaxDescriptionLength == 0:
		return errZeroDescriptionLimit
	case c.MinVotingPeriod == 0:
		return errZeroMinVotingPeriod
	case c.MinVotingPeriod > c.MaxVotingPeriod:
		return fmt.Errorf("%w: %d > %d", errVotingPeriodBounds, c.MinVotingPeriod, c.MaxVotingPeriod)
	case c.ProposalDeposit == 0:
		return errZeroProposalDeposit
	}
	return nil
}
