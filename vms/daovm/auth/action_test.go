// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/utils/crypto/secp256k1"
)

func testAction() *Action {
	return &Action{
		NetworkID:  12345,
		Method:     "vote",
		ProposalID: 1,
		InFavor:    true,
	}
}

func TestActionSignAndVerify(t *testing.T) {
	keys := secp256k1.TestKeys()
	signature, err := testAction().Sign(keys[0])
	require.NoError(t, err)

	tests := map[string]struct {
		action      func() *Action
		signer      *secp256k1.PrivateKey
		signature   string
		expectedErr error
	}{
		"OK": {
			action:    testAction,
			signer:    keys[0],
			signature: signature,
		},
		"Fail: other caller": {
			action:      testAction,
			signer:      keys[1],
			signature:   signature,
			expectedErr: ErrWrongSigner,
		},
		"Fail: modified vote": {
			action: func() *Action {
				a := testAction()
				a.InFavor = false
				return a
			},
			signer:      keys[0],
			signature:   signature,
			expectedErr: ErrWrongSigner,
		},
		"Fail: other method": {
			action: func() *Action {
				a := testAction()
				a.Method = "cancelProposal"
				return a
			},
			signer:      keys[0],
			signature:   signature,
			expectedErr: ErrWrongSigner,
		},
		"Fail: other network": {
			action: func() *Action {
				a := testAction()
				a.NetworkID++
				return a
			},
			signer:      keys[0],
			signature:   signature,
			expectedErr: ErrWrongSigner,
		},
		"Fail: empty signature": {
			action:      testAction,
			signer:      keys[0],
			expectedErr: ErrInvalidSignature,
		},
		"Fail: not hex": {
			action:      testAction,
			signer:      keys[0],
			signature:   "signature",
			expectedErr: ErrInvalidSignature,
		},
		"Fail: short signature": {
			action:      testAction,
			signer:      keys[0],
			signature:   "0x00010203",
			expectedErr: ErrInvalidSignature,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.action().Verify(tt.signer.Address(), tt.signature)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestActionSigner(t *testing.T) {
	require := require.New(t)
	key := secp256k1.TestKeys()[2]

	signature, err := testAction().Sign(key)
	require.NoError(err)
	signer, err := testAction().Signer(signature)
	require.NoError(err)
	require.Equal(key.Address(), signer)

	// cached recovery returns the same address
	signer, err = testAction().Signer(signature)
	require.NoError(err)
	require.Equal(key.Address(), signer)
}

func TestParsePrivateKey(t *testing.T) {
	require := require.New(t)
	key := secp256k1.TestKeys()[3]

	parsed, err := ParsePrivateKey(key.String())
	require.NoError(err)
	require.Equal(key.Address(), parsed.Address())

	_, err = ParsePrivateKey("ewoqjP7PxY4yr3iLTpLisriqt94hdyDFNgchSxGGztUrTXtNN")
	require.ErrorIs(err, errMissingKeyPrefix)
	_, err = ParsePrivateKey(secp256k1.PrivateKeyPrefix + "notcb58")
	require.Error(err)
}
