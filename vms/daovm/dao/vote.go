// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import "github.com/ava-labs/avalanchego/ids"

// Vote is immutable once cast. Every vote has weight 1.
type Vote struct {
	InFavor bool `serialize:"true" json:"inFavor"`
}

type VoteWithAddr struct {
	Vote  `serialize:"true"`
	Voter ids.ShortID `serialize:"true" json:"voter"`
}
