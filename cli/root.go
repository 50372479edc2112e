// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chain4travel/caminodao/vms/daovm"
)

const (
	defaultURI = "http://127.0.0.1:9750"
	uriEnvVar  = "CAMINODAO_URI"
)

type rootOptions struct {
	uri     string
	envFile string
	json    bool
	noColor bool
}

func (o *rootOptions) client() daovm.Client {
	return daovm.NewClient(o.uri)
}

// NewRootCmd creates the caminodao command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "caminodao",
		Short: "Camino DAO governance node and client",
		Long: `caminodao runs a governance node that manages proposals, votes and
proposal deposits, and talks to a running node over its JSON-RPC API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.envFile != "" {
				// variables already set in the environment take precedence
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("couldn't load env file: %w", err)
				}
			}
			if uri := os.Getenv(uriEnvVar); uri != "" && !cmd.Flags().Changed("uri") {
				opts.uri = uri
			}
			if opts.noColor || opts.json || !isTerminal(cmd) {
				color.NoColor = true
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.uri, "uri", defaultURI, "URI of the node API, also read from "+uriEnvVar)
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file before running")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "node", Title: "Node Commands"},
		&cobra.Group{ID: "governance", Title: "Governance Commands"},
	)

	nodeCmd := newNodeCmd()
	nodeCmd.GroupID = "node"
	rootCmd.AddCommand(nodeCmd)

	for _, cmd := range []*cobra.Command{
		newProposalCmd(opts),
		newEventsCmd(opts),
		newBalanceCmd(opts),
		newStatusCmd(opts),
		newExportCmd(opts),
		newKeyCmd(opts),
	} {
		cmd.GroupID = "governance"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the command tree on the process arguments and returns the exit
// code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
