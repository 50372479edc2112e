// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/chain4travel/caminodao/vms/daovm"
	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var (
	headerStyle    = color.New(color.Bold, color.FgHiWhite)
	labelStyle     = color.New(color.Faint)
	addressStyle   = color.New(color.FgWhite)
	forStyle       = color.New(color.FgGreen)
	againstStyle   = color.New(color.FgRed)
	eventTypeStyle = color.New(color.FgCyan)

	statusStyles = map[dao.Status]*color.Color{
		dao.Active:    color.New(color.FgYellow),
		dao.Approved:  color.New(color.FgGreen),
		dao.Executed:  color.New(color.FgGreen, color.Bold),
		dao.Rejected:  color.New(color.FgRed),
		dao.Cancelled: color.New(color.Faint),
		dao.Expired:   color.New(color.Faint),
	}
)

func statusString(status dao.Status) string {
	style, ok := statusStyles[status]
	if !ok {
		return status.String()
	}
	return style.Sprint(status.String())
}

func voteString(inFavor bool) string {
	if inFavor {
		return forStyle.Sprint("for")
	}
	return againstStyle.Sprint("against")
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Format.Header = text.FormatDefault
	t.Style().Box.PaddingRight = "  "
	return t
}

func printJSON(out io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func renderProposals(out io.Writer, proposals []daovm.APIProposal) {
	if len(proposals) == 0 {
		fmt.Fprintln(out, "No proposals found")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Title", "Status", "For", "Against", "Approval", "Voting End"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for _, p := range proposals {
		t.AppendRow(table.Row{
			uint64(p.ID),
			p.Title,
			statusString(p.Status),
			uint64(p.VotesFor),
			uint64(p.VotesAgainst),
			fmt.Sprintf("%d%%", p.ApprovalPercentage),
			uint64(p.VotingEnd),
		})
	}
	t.Render()
}

func renderProposal(out io.Writer, p *daovm.APIProposal) {
	fmt.Fprintf(out, "%s %s\n", headerStyle.Sprintf("Proposal #%d", p.ID), statusString(p.Status))
	fmt.Fprintf(out, "  %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(out, "  %s\n", labelStyle.Sprint(p.Description))
	}
	fmt.Fprintln(out)

	field := func(label, value string) {
		fmt.Fprintf(out, "  %-18s %s\n", labelStyle.Sprint(label+":"), value)
	}
	field("Proposer", addressStyle.Sprint(p.Proposer))
	field("Created at", strconv.FormatUint(uint64(p.CreatedAt), 10))
	field("Voting", fmt.Sprintf("%d - %d", p.VotingStart, p.VotingEnd))
	field("Votes", fmt.Sprintf("%s / %s of %d (%d%%)",
		forStyle.Sprint(uint64(p.VotesFor)),
		againstStyle.Sprint(uint64(p.VotesAgainst)),
		p.TotalVotes,
		p.ApprovalPercentage,
	))
	field("Deposit", fmt.Sprintf("%d (refunded: %t)", p.Deposit, p.DepositRefunded))
	if p.ExecutedAt != nil {
		field("Executed at", strconv.FormatUint(uint64(*p.ExecutedAt), 10))
	}
}

func renderVotes(out io.Writer, proposalID uint64, votes []daovm.APIVote) {
	if len(votes) == 0 {
		fmt.Fprintf(out, "No votes on proposal %d\n", proposalID)
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Voter", "Vote"})
	for _, v := range votes {
		t.AppendRow(table.Row{addressStyle.Sprint(v.Voter), voteString(v.InFavor)})
	}
	t.Render()
}

func renderEvents(out io.Writer, events []*dao.EventEnvelope) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No events found")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Seq", "Height", "Type", "Details"})
	for _, e := range events {
		t.AppendRow(table.Row{
			e.Seq,
			e.Height,
			eventTypeStyle.Sprint(e.Event.EventName()),
			eventDetails(e.Event),
		})
	}
	t.Render()
}

func eventDetails(event dao.Event) string {
	switch e := event.(type) {
	case *dao.ProposalCreated:
		return fmt.Sprintf("proposal %d %q", e.ProposalID, e.Title)
	case *dao.VoteCast:
		return fmt.Sprintf("proposal %d %s", e.ProposalID, voteString(e.InFavor))
	case *dao.ProposalStatusChanged:
		return fmt.Sprintf("proposal %d %s -> %s", e.ProposalID, e.OldStatus, statusString(e.NewStatus))
	case *dao.ProposalClosed:
		return fmt.Sprintf("proposal %d %s", e.ProposalID, statusString(e.FinalStatus))
	case *dao.VotingEnded:
		return fmt.Sprintf("proposal %d approved: %t", e.ProposalID, e.Approved)
	case *dao.ProposalExecuted:
		return fmt.Sprintf("proposal %d", e.ProposalID)
	default:
		return ""
	}
}
