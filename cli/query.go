// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const defaultEventsLimit = 100

func newEventsCmd(opts *rootOptions) *cobra.Command {
	var (
		fromSeq uint64
		limit   uint32
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List governance events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			var events []*dao.EventEnvelope
			next := fromSeq
			for {
				page, nextSeq, err := c.GetEvents(cmd.Context(), next, limit)
				if err != nil {
					return fmt.Errorf("couldn't get events: %w", err)
				}
				events = append(events, page...)
				if !all || len(page) == 0 || nextSeq == next {
					break
				}
				next = nextSeq
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), events)
			}
			renderEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&fromSeq, "from-seq", 1, "Sequence number of the first event")
	cmd.Flags().Uint32Var(&limit, "limit", defaultEventsLimit, "Maximum number of events per page")
	cmd.Flags().BoolVar(&all, "all", false, "Follow pages until the end of the event log")
	return cmd
}

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the free and reserved balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := opts.client().GetBalance(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("couldn't get balance: %w", err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), balance)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d\n", labelStyle.Sprint("Free:    "), uint64(balance.Free))
			fmt.Fprintf(out, "%s %d\n", labelStyle.Sprint("Reserved:"), uint64(balance.Reserved))
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current height and governance parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			height, err := c.GetHeight(cmd.Context())
			if err != nil {
				return fmt.Errorf("couldn't get height: %w", err)
			}
			cfg, err := c.GetConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("couldn't get config: %w", err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"height": height,
					"config": cfg,
				})
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{labelStyle.Sprint("Height"), height},
				{labelStyle.Sprint("Network ID"), uint32(cfg.NetworkID)},
				{labelStyle.Sprint("Proposal deposit"), uint64(cfg.ProposalDeposit)},
				{labelStyle.Sprint("Voting period"), fmt.Sprintf("%d - %d", cfg.MinVotingPeriod, cfg.MaxVotingPeriod)},
				{labelStyle.Sprint("Max title length"), uint32(cfg.MaxTitleLength)},
				{labelStyle.Sprint("Max description length"), uint32(cfg.MaxDescriptionLength)},
			})
			t.Render()
			return nil
		},
	}
}
