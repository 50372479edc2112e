// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var errUnknownGenesisFormat = errors.New("unknown genesis file format")

// FromJSON parses and validates genesis bytes for [networkID].
func FromJSON(networkID uint32, genesisBytes []byte) (*Config, error) {
	uc := UnparsedConfig{}
	if err := json.Unmarshal(genesisBytes, &uc); err != nil {
		return nil, fmt.Errorf("unable to unmarshal genesis: %w", err)
	}
	return parseAndValidate(networkID, uc)
}

// FromFile loads a JSON or YAML genesis file.
func FromFile(networkID uint32, path string) (*Config, error) {
	genesisBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read genesis file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(networkID, genesisBytes)
	case ".yaml", ".yml":
		uc := UnparsedConfig{}
		if err := yaml.Unmarshal(genesisBytes, &uc); err != nil {
			return nil, fmt.Errorf("unable to unmarshal genesis: %w", err)
		}
		return parseAndValidate(networkID, uc)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownGenesisFormat, path)
	}
}

// FromUnparsed parses and validates [uc] for [networkID].
func FromUnparsed(networkID uint32, uc UnparsedConfig) (*Config, error) {
	return parseAndValidate(networkID, uc)
}

// Bytes returns the JSON genesis bytes handed to the vm.
func Bytes(config *Config) ([]byte, error) {
	uc, err := config.Unparse()
	if err != nil {
		return nil, err
	}
	return json.Marshal(uc)
}

func parseAndValidate(networkID uint32, uc UnparsedConfig) (*Config, error) {
	config, err := uc.Parse()
	if err != nil {
		return nil, fmt.Errorf("unable to parse genesis: %w", err)
	}
	if err := config.Validate(networkID); err != nil {
		return nil, fmt.Errorf("genesis config validation failed: %w", err)
	}
	return &config, nil
}
