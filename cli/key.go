// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/crypto/secp256k1"

	"github.com/chain4travel/caminodao/api"
	"github.com/chain4travel/caminodao/vms/daovm/auth"
)

const privateKeyEnvVar = "CAMINODAO_PRIVATE_KEY"

var errMissingKey = errors.New("missing private key, set --private-key or " + privateKeyEnvVar)

func addKeyFlag(cmd *cobra.Command, keyStr *string) {
	cmd.Flags().StringVar(keyStr, "private-key", "", "Key (PrivateKey-...) signing the request, also read from "+privateKeyEnvVar)
}

// loadKey parses [keyStr], falling back to the environment.
func loadKey(keyStr string) (*secp256k1.PrivateKey, error) {
	if keyStr == "" {
		keyStr = os.Getenv(privateKeyEnvVar)
	}
	if keyStr == "" {
		return nil, errMissingKey
	}
	return auth.ParsePrivateKey(keyStr)
}

func newKeyCmd(opts *rootOptions) *cobra.Command {
	var networkID uint32
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Create keys and show their addresses",
	}
	cmd.PersistentFlags().Uint32Var(&networkID, "network-id", constants.LocalID, "Network the addresses are formatted for")

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := secp256k1.NewPrivateKey()
			if err != nil {
				return fmt.Errorf("couldn't generate key: %w", err)
			}
			return printKey(cmd, opts, networkID, key, true)
		},
	}

	var keyStr string
	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Show the address of a private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(keyStr)
			if err != nil {
				return err
			}
			return printKey(cmd, opts, networkID, key, false)
		},
	}
	addKeyFlag(addressCmd, &keyStr)

	cmd.AddCommand(newCmd, addressCmd)
	return cmd
}

func printKey(cmd *cobra.Command, opts *rootOptions, networkID uint32, key *secp256k1.PrivateKey, withKey bool) error {
	addr, err := api.FormatAddress(networkID, key.Address())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !withKey {
		fmt.Fprintln(out, addr)
		return nil
	}
	if opts.json {
		return printJSON(out, map[string]string{"privateKey": key.String(), "address": addr})
	}
	fmt.Fprintf(out, "Private key: %s\nAddress:     %s\n", key.String(), addr)
	return nil
}
