// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var (
	errInvalidVoteChoice = errors.New("vote must be \"for\" or \"against\"")

	pastTense = map[string]string{
		"execute": "executed",
		"cancel":  "cancelled",
	}
)

func newProposalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposal",
		Aliases: []string{"p"},
		Short:   "Create, vote on and inspect proposals",
	}
	cmd.AddCommand(
		newProposalCreateCmd(opts),
		newProposalVoteCmd(opts),
		newProposalActionCmd(opts, "close", "Close a proposal whose voting period ended"),
		newProposalActionCmd(opts, "execute", "Execute an approved proposal"),
		newProposalActionCmd(opts, "cancel", "Cancel an active proposal, only its proposer can do this"),
		newProposalGetCmd(opts),
		newProposalListCmd(opts),
		newProposalVotesCmd(opts),
		newProposalClosableCmd(opts),
	)
	return cmd
}

func parseProposalID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id %q: %w", arg, err)
	}
	return id, nil
}

func parseVoteChoice(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "for", "yes", "aye":
		return true, nil
	case "against", "no", "nay":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", errInvalidVoteChoice, arg)
	}
}

func parseStatuses(strs []string) ([]dao.Status, error) {
	statuses := make([]dao.Status, 0, len(strs))
	for _, str := range lo.Uniq(strs) {
		status, err := dao.ParseStatus(str)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newProposalCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		keyStr       string
		title        string
		description  string
		votingPeriod uint64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a proposal, reserving the proposal deposit from the signer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(keyStr)
			if err != nil {
				return err
			}
			var period *uint64
			if cmd.Flags().Changed("voting-period") {
				period = &votingPeriod
			}
			id, err := opts.client().CreateProposal(cmd.Context(), key, title, description, period)
			if err != nil {
				return fmt.Errorf("couldn't create proposal: %w", err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), map[string]uint64{"proposalID": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created proposal %d\n", id)
			return nil
		},
	}
	addKeyFlag(cmd, &keyStr)
	cmd.Flags().StringVar(&title, "title", "", "Proposal title")
	cmd.Flags().StringVar(&description, "description", "", "Proposal description")
	cmd.Flags().Uint64Var(&votingPeriod, "voting-period", 0, "Voting period in blocks, defaults to the minimum voting period")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newProposalVoteCmd(opts *rootOptions) *cobra.Command {
	var keyStr string
	cmd := &cobra.Command{
		Use:   "vote <proposal-id> <for|against>",
		Short: "Vote on an active proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			inFavor, err := parseVoteChoice(args[1])
			if err != nil {
				return err
			}
			key, err := loadKey(keyStr)
			if err != nil {
				return err
			}
			if err := opts.client().Vote(cmd.Context(), key, id, inFavor); err != nil {
				return fmt.Errorf("couldn't vote on proposal %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Voted %s proposal %d\n", voteString(inFavor), id)
			return nil
		},
	}
	addKeyFlag(cmd, &keyStr)
	return cmd
}

// newProposalActionCmd builds the close, execute and cancel commands, which
// share the same arguments.
func newProposalActionCmd(opts *rootOptions, action, short string) *cobra.Command {
	var keyStr string
	cmd := &cobra.Command{
		Use:   action + " <proposal-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			key, err := loadKey(keyStr)
			if err != nil {
				return err
			}

			c := opts.client()
			out := cmd.OutOrStdout()
			switch action {
			case "close":
				status, err := c.CloseProposal(cmd.Context(), key, id)
				if err != nil {
					return fmt.Errorf("couldn't close proposal %d: %w", id, err)
				}
				if opts.json {
					return printJSON(out, map[string]dao.Status{"status": status})
				}
				fmt.Fprintf(out, "Closed proposal %d: %s\n", id, statusString(status))
				return nil
			case "execute":
				err = c.ExecuteProposal(cmd.Context(), key, id)
			default:
				err = c.CancelProposal(cmd.Context(), key, id)
			}
			if err != nil {
				return fmt.Errorf("couldn't %s proposal %d: %w", action, id, err)
			}
			fmt.Fprintf(out, "Proposal %d %s\n", id, pastTense[action])
			return nil
		},
	}
	addKeyFlag(cmd, &keyStr)
	return cmd
}

func newProposalGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <proposal-id>",
		Short: "Show a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			proposal, err := opts.client().GetProposal(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("couldn't get proposal %d: %w", id, err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), proposal)
			}
			renderProposal(cmd.OutOrStdout(), proposal)
			return nil
		},
	}
}

func newProposalListCmd(opts *rootOptions) *cobra.Command {
	var statusStrs []string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List proposals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := parseStatuses(statusStrs)
			if err != nil {
				return err
			}
			proposals, err := opts.client().GetProposals(cmd.Context(), statuses)
			if err != nil {
				return fmt.Errorf("couldn't list proposals: %w", err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), proposals)
			}
			renderProposals(cmd.OutOrStdout(), proposals)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statusStrs, "status", nil, "Only list proposals with these statuses")
	return cmd
}

func newProposalVotesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <proposal-id>",
		Short: "List the votes cast on a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}
			votes, err := opts.client().GetVotes(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("couldn't get votes of proposal %d: %w", id, err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), votes)
			}
			renderVotes(cmd.OutOrStdout(), id, votes)
			return nil
		},
	}
}

func newProposalClosableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "closable",
		Short: "List active proposals whose voting period ended",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proposals, err := opts.client().GetClosableProposals(cmd.Context())
			if err != nil {
				return fmt.Errorf("couldn't list closable proposals: %w", err)
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), proposals)
			}
			renderProposals(cmd.OutOrStdout(), proposals)
			return nil
		},
	}
}
