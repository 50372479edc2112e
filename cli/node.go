// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chain4travel/caminodao/app"
	"github.com/chain4travel/caminodao/config"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run a governance node",
		Long: `Run a governance node serving the dao API at /ext/dao.

Every flag can also be set through the environment, prefixed with CAMINODAO_
(e.g. CAMINODAO_HTTP_PORT=9750), or through the file given by --config-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.BindViper(cmd.Flags())
			if err != nil {
				return err
			}
			if v.GetBool(config.VersionKey) {
				fmt.Fprintln(cmd.OutOrStdout(), versionString())
				return nil
			}

			nodeConfig, err := config.GetNodeConfig(v)
			if err != nil {
				return fmt.Errorf("couldn't load node config: %w", err)
			}
			if exitCode := app.Run(app.New(nodeConfig)); exitCode != 0 {
				return fmt.Errorf("node exited with code %d", exitCode)
			}
			return nil
		},
	}
	cmd.Flags().AddGoFlagSet(config.BuildFlagSet())
	return cmd
}
