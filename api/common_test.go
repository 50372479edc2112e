// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/formatting/address"
)

func TestAddress(t *testing.T) {
	addr := ids.GenerateTestShortID()
	bech32Addr, err := FormatAddress(constants.LocalID, addr)
	require.NoError(t, err)

	otherChainAddr, err := address.Format("X", constants.GetHRP(constants.LocalID), addr.Bytes())
	require.NoError(t, err)
	otherNetworkAddr, err := FormatAddress(constants.FujiID, addr)
	require.NoError(t, err)

	lastChar := "q"
	if bech32Addr[len(bech32Addr)-1] == 'q' {
		lastChar = "p"
	}

	tests := map[string]struct {
		addrStr     string
		expected    ids.ShortID
		expectedErr error
		invalid     bool
	}{
		"OK: bech32": {
			addrStr:  bech32Addr,
			expected: addr,
		},
		"OK: cb58": {
			addrStr:  addr.String(),
			expected: addr,
		},
		"Fail: empty": {
			expectedErr: errEmptyAddress,
		},
		"Fail: other chain": {
			addrStr:     otherChainAddr,
			expectedErr: errWrongChain,
		},
		"Fail: other network": {
			addrStr:     otherNetworkAddr,
			expectedErr: errWrongNetworkID,
		},
		"Fail: bad checksum": {
			addrStr: bech32Addr[:len(bech32Addr)-1] + lastChar,
			invalid: true,
		},
		"Fail: garbage": {
			addrStr: "not an address",
			invalid: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseAddress(constants.LocalID, tt.addrStr)
			switch {
			case tt.expectedErr != nil:
				require.ErrorIs(t, err, tt.expectedErr)
				return
			case tt.invalid:
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, parsed)
		})
	}
}
