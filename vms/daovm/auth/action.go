// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/cb58"
	"github.com/ava-labs/avalanchego/utils/crypto/secp256k1"
	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const recoverCacheSize = 2048

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrWrongSigner      = errors.New("request not signed by the caller")

	errMissingKeyPrefix = fmt.Errorf("private key missing %s prefix", secp256k1.PrivateKeyPrefix)

	recoverCache = &secp256k1.RecoverCache{
		LRU: cache.LRU[ids.ID, *secp256k1.PublicKey]{Size: recoverCacheSize},
	}
)

// Action is the part of a state changing request that the caller signs.
// Fields that don't apply to [Method] stay zero.
type Action struct {
	NetworkID    uint32 `serialize:"true"`
	Method       string `serialize:"true"`
	ProposalID   uint64 `serialize:"true"`
	Title        string `serialize:"true"`
	Description  string `serialize:"true"`
	VotingPeriod uint64 `serialize:"true"`
	InFavor      bool   `serialize:"true"`
}

// BuildMsgToSign returns the codec encoding of the action.
func (a *Action) BuildMsgToSign() ([]byte, error) {
	msg, err := dao.Codec.Marshal(dao.CodecVersion, a)
	if err != nil {
		return nil, fmt.Errorf("couldn't serialize %s action: %w", a.Method, err)
	}
	return msg, nil
}

// Sign returns the hex encoded signature of [key] over the action.
func (a *Action) Sign(key *secp256k1.PrivateKey) (string, error) {
	msg, err := a.BuildMsgToSign()
	if err != nil {
		return "", err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return "", err
	}
	return formatting.Encode(formatting.Hex, sig)
}

// Signer returns the address whose key produced [signature] over the
// action.
func (a *Action) Signer(signature string) (ids.ShortID, error) {
	if signature == "" {
		return ids.ShortEmpty, fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	sig, err := formatting.Decode(formatting.Hex, signature)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	msg, err := a.BuildMsgToSign()
	if err != nil {
		return ids.ShortEmpty, err
	}
	pubKey, err := recoverCache.RecoverPublicKey(msg, sig)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return pubKey.Address(), nil
}

// Verify checks that [addr] signed the action.
func (a *Action) Verify(addr ids.ShortID, signature string) error {
	signer, err := a.Signer(signature)
	if err != nil {
		return err
	}
	if signer != addr {
		return fmt.Errorf("%w: %s signed for %s", ErrWrongSigner, signer, addr)
	}
	return nil
}

// ParsePrivateKey parses a "PrivateKey-<cb58>" string.
func ParsePrivateKey(keyStr string) (*secp256k1.PrivateKey, error) {
	if !strings.HasPrefix(keyStr, secp256k1.PrivateKeyPrefix) {
		return nil, errMissingKeyPrefix
	}
	keyBytes, err := cb58.Decode(strings.TrimPrefix(keyStr, secp256k1.PrivateKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("couldn't decode private key: %w", err)
	}
	return secp256k1.ToPrivateKey(keyBytes)
}
