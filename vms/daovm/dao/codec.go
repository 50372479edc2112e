// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// CodecVersion is the current default codec version
const CodecVersion = 0

// Codec is used to persist proposals, events and balances.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}
	errs.Add(
		RegisterEventTypes(c),
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// RegisterEventTypes registers the event types in a stable order, the order
// defines the type IDs on disk and must only ever be appended to.
func RegisterEventTypes(targetCodec codec.Registry) error {
	errs := wrappers.Errs{}
	errs.Add(
		targetCodec.RegisterType(&ProposalCreated{}),
		targetCodec.RegisterType(&VoteCast{}),
		targetCodec.RegisterType(&ProposalStatusChanged{}),
		targetCodec.RegisterType(&ProposalClosed{}),
		targetCodec.RegisterType(&VotingEnded{}),
		targetCodec.RegisterType(&ProposalExecuted{}),
	)
	return errs.Err
}
