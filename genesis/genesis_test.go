// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/stretchr/testify/require"
)

func TestLocalConfig(t *testing.T) {
	require := require.New(t)

	require.NoError(LocalConfig.Validate(constants.LocalID))
	require.Len(LocalConfig.Allocations, 1)

	uc, err := LocalConfig.Unparse()
	require.NoError(err)
	require.Equal(unparsedLocalConfig, uc)
}

func TestConfigValidate(t *testing.T) {
	addr1 := ids.GenerateTestShortID()
	addr2 := ids.GenerateTestShortID()

	tests := map[string]struct {
		config      Config
		expectedErr error
	}{
		"OK": {
			config: Config{
				NetworkID: constants.LocalID,
				Allocations: []Allocation{
					{Address: addr1, Amount: 1},
					{Address: addr2, Amount: math.MaxUint64 - 1},
				},
			},
		},
		"OK: no allocations": {
			config: Config{NetworkID: constants.LocalID},
		},
		"Fail: network ID mismatch": {
			config:      Config{NetworkID: constants.MainnetID},
			expectedErr: errNetworkIDMismatch,
		},
		"Fail: zero amount": {
			config: Config{
				NetworkID:   constants.LocalID,
				Allocations: []Allocation{{Address: addr1}},
			},
			expectedErr: errZeroAllocation,
		},
		"Fail: duplicate address": {
			config: Config{
				NetworkID: constants.LocalID,
				Allocations: []Allocation{
					{Address: addr1, Amount: 1},
					{Address: addr1, Amount: 2},
				},
			},
			expectedErr: errDuplicateAllocation,
		},
		"Fail: total overflow": {
			config: Config{
				NetworkID: constants.LocalID,
				Allocations: []Allocation{
					{Address: addr1, Amount: math.MaxUint64},
					{Address: addr2, Amount: 1},
				},
			},
			expectedErr: errAllocationOverflow,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, tt.config.Validate(constants.LocalID), tt.expectedErr)
		})
	}
}

func TestUnparsedConfigParse(t *testing.T) {
	tests := map[string]struct {
		allocation  UnparsedAllocation
		expectedErr bool
	}{
		"OK": {
			allocation: unparsedLocalConfig.Allocations[0],
		},
		"Fail: no separator": {
			allocation:  UnparsedAllocation{Address: "local18jma8ppw3nhx5r4ap8clazz0dps7rv5u00z96u", Amount: 1},
			expectedErr: true,
		},
		"Fail: bad checksum": {
			allocation:  UnparsedAllocation{Address: "D-local18jma8ppw3nhx5r4ap8clazz0dps7rv5u00z96x", Amount: 1},
			expectedErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := UnparsedConfig{
				NetworkID:   constants.LocalID,
				Allocations: []UnparsedAllocation{tt.allocation},
			}.Parse()
			if tt.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBytesRoundTrip(t *testing.T) {
	require := require.New(t)

	genesisBytes, err := Bytes(&LocalConfig)
	require.NoError(err)

	config, err := FromJSON(constants.LocalID, genesisBytes)
	require.NoError(err)
	require.Equal(LocalConfig, *config)

	_, err = FromJSON(constants.MainnetID, genesisBytes)
	require.ErrorIs(err, errNetworkIDMismatch)
}

func TestFromFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "genesis.yaml")
	require.NoError(os.WriteFile(yamlPath, []byte(`networkID: 12345
allocations:
  - address: D-local18jma8ppw3nhx5r4ap8clazz0dps7rv5u00z96u
    amount: 5000
message: yaml
`), 0o600))

	config, err := FromFile(constants.LocalID, yamlPath)
	require.NoError(err)
	require.Equal(LocalConfig.Allocations[0].Address, config.Allocations[0].Address)
	require.Equal(uint64(5000), config.Allocations[0].Amount)
	require.Equal("yaml", config.Message)

	jsonPath := filepath.Join(dir, "genesis.json")
	genesisBytes, err := Bytes(&LocalConfig)
	require.NoError(err)
	require.NoError(os.WriteFile(jsonPath, genesisBytes, 0o600))
	config, err = FromFile(constants.LocalID, jsonPath)
	require.NoError(err)
	require.Equal(LocalConfig, *config)

	_, err = FromFile(constants.LocalID, filepath.Join(dir, "genesis.toml"))
	require.Error(err)

	txtPath := filepath.Join(dir, "genesis.txt")
	require.NoError(os.WriteFile(txtPath, genesisBytes, 0o600))
	_, err = FromFile(constants.LocalID, txtPath)
	require.ErrorIs(err, errUnknownGenesisFormat)
}

func TestGetConfig(t *testing.T) {
	require := require.New(t)

	require.Equal(LocalConfig, *GetConfig(constants.LocalID))

	config := GetConfig(constants.FujiID)
	require.Equal(constants.FujiID, config.NetworkID)
	require.Empty(config.Allocations)
	require.NoError(config.Validate(constants.FujiID))
}
