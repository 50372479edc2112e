// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/formatting/address"
	"github.com/ava-labs/avalanchego/utils/json"
)

// ChainAlias prefixes every bech32 address exposed over the API.
const ChainAlias = "D"

var (
	errEmptyAddress   = errors.New("empty address")
	errWrongChain     = errors.New("address of another chain")
	errWrongNetworkID = errors.New("address of another network")
)

// EmptyReply indicates that an api doesn't have a response to return.
type EmptyReply struct{}

// JSONProposalID contains the ID of a proposal
type JSONProposalID struct {
	ProposalID json.Uint64 `json:"proposalID"`
}

// JSONAddress contains an address
type JSONAddress struct {
	Address string `json:"address"`
}

// JSONHeight contains a block height
type JSONHeight struct {
	Height json.Uint64 `json:"height"`
}

// ParseAddress parses a bech32 address (D-<hrp>1...) of network
// [networkID] or a cb58 encoded short ID.
func ParseAddress(networkID uint32, addrStr string) (ids.ShortID, error) {
	if addrStr == "" {
		return ids.ShortEmpty, errEmptyAddress
	}
	if !strings.Contains(addrStr, "-") {
		return ids.ShortFromString(addrStr)
	}
	chainAlias, hrp, addrBytes, err := address.Parse(addrStr)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("couldn't parse address %q: %w", addrStr, err)
	}
	if chainAlias != ChainAlias {
		return ids.ShortEmpty, fmt.Errorf("%w: expected %q but got %q", errWrongChain, ChainAlias, chainAlias)
	}
	if expectedHRP := constants.GetHRP(networkID); hrp != expectedHRP {
		return ids.ShortEmpty, fmt.Errorf("%w: expected %q but got %q", errWrongNetworkID, expectedHRP, hrp)
	}
	return ids.ToShortID(addrBytes)
}

func FormatAddress(networkID uint32, addr ids.ShortID) (string, error) {
	return address.Format(ChainAlias, constants.GetHRP(networkID), addr.Bytes())
}
