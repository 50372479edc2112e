// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/chain4travel/caminodao/vms/daovm"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatXLSX = "xlsx"

	proposalsSheet = "Proposals"
	votesSheet     = "Votes"
)

var (
	errUnknownFormat = errors.New("unknown export format")
	errNoOutput      = errors.New("xlsx export needs --output")
)

type voteRecord struct {
	ProposalID uint64 `json:"proposalID" yaml:"proposalID"`
	Voter      string `json:"voter"      yaml:"voter"`
	InFavor    bool   `json:"inFavor"    yaml:"inFavor"`
}

type proposalRecord struct {
	ID                 uint64       `json:"id"                   yaml:"id"`
	Proposer           string       `json:"proposer"             yaml:"proposer"`
	Title              string       `json:"title"                yaml:"title"`
	Description        string       `json:"description"          yaml:"description"`
	Status             string       `json:"status"               yaml:"status"`
	CreatedAt          uint64       `json:"createdAt"            yaml:"createdAt"`
	VotingStart        uint64       `json:"votingStart"          yaml:"votingStart"`
	VotingEnd          uint64       `json:"votingEnd"            yaml:"votingEnd"`
	VotesFor           uint64       `json:"votesFor"             yaml:"votesFor"`
	VotesAgainst       uint64       `json:"votesAgainst"         yaml:"votesAgainst"`
	ApprovalPercentage uint32       `json:"approvalPercentage"   yaml:"approvalPercentage"`
	ExecutedAt         *uint64      `json:"executedAt,omitempty" yaml:"executedAt,omitempty"`
	Deposit            uint64       `json:"deposit"              yaml:"deposit"`
	DepositRefunded    bool         `json:"depositRefunded"      yaml:"depositRefunded"`
	Votes              []voteRecord `json:"votes"                yaml:"votes"`
}

// report is a snapshot of all proposals and their votes
type report struct {
	Height    uint64           `json:"height"    yaml:"height"`
	Proposals []proposalRecord `json:"proposals" yaml:"proposals"`
}

func newProposalRecord(p *daovm.APIProposal, votes []daovm.APIVote) proposalRecord {
	record := proposalRecord{
		ID:                 uint64(p.ID),
		Proposer:           p.Proposer,
		Title:              p.Title,
		Description:        p.Description,
		Status:             p.Status.String(),
		CreatedAt:          uint64(p.CreatedAt),
		VotingStart:        uint64(p.VotingStart),
		VotingEnd:          uint64(p.VotingEnd),
		VotesFor:           uint64(p.VotesFor),
		VotesAgainst:       uint64(p.VotesAgainst),
		ApprovalPercentage: uint32(p.ApprovalPercentage),
		Deposit:            uint64(p.Deposit),
		DepositRefunded:    p.DepositRefunded,
		Votes: lo.Map(votes, func(v daovm.APIVote, _ int) voteRecord {
			return voteRecord{
				ProposalID: uint64(p.ID),
				Voter:      v.Voter,
				InFavor:    v.InFavor,
			}
		}),
	}
	if p.ExecutedAt != nil {
		executedAt := uint64(*p.ExecutedAt)
		record.ExecutedAt = &executedAt
	}
	return record
}

func fetchReport(ctx context.Context, c daovm.Client) (*report, error) {
	height, err := c.GetHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't get height: %w", err)
	}
	proposals, err := c.GetProposals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't get proposals: %w", err)
	}

	r := &report{
		Height:    height,
		Proposals: make([]proposalRecord, len(proposals)),
	}
	for i := range proposals {
		p := &proposals[i]
		votes, err := c.GetVotes(ctx, uint64(p.ID))
		if err != nil {
			return nil, fmt.Errorf("couldn't get votes of proposal %d: %w", p.ID, err)
		}
		r.Proposals[i] = newProposalRecord(p, votes)
	}
	return r, nil
}

func encodeReport(r *report, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		return json.MarshalIndent(r, "", "  ")
	case formatYAML:
		return yaml.Marshal(r)
	case formatXLSX:
		return reportWorkbook(r)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}

func reportWorkbook(r *report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", proposalsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(votesSheet); err != nil {
		return nil, err
	}
	headerStyleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	proposalRows := [][]interface{}{{
		"ID", "Proposer", "Title", "Description", "Status", "Created At",
		"Voting Start", "Voting End", "Votes For", "Votes Against",
		"Approval %", "Executed At", "Deposit", "Deposit Refunded",
	}}
	var voteRows [][]interface{}
	voteRows = append(voteRows, []interface{}{"Proposal ID", "Voter", "In Favor"})
	for _, p := range r.Proposals {
		var executedAt interface{}
		if p.ExecutedAt != nil {
			executedAt = *p.ExecutedAt
		}
		proposalRows = append(proposalRows, []interface{}{
			p.ID, p.Proposer, p.Title, p.Description, p.Status, p.CreatedAt,
			p.VotingStart, p.VotingEnd, p.VotesFor, p.VotesAgainst,
			p.ApprovalPercentage, executedAt, p.Deposit, p.DepositRefunded,
		})
		for _, v := range p.Votes {
			voteRows = append(voteRows, []interface{}{v.ProposalID, v.Voter, v.InFavor})
		}
	}

	for sheet, rows := range map[string][][]interface{}{
		proposalsSheet: proposalRows,
		votesSheet:     voteRows,
	} {
		for i := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
				return nil, err
			}
		}
		if err := f.SetRowStyle(sheet, 1, 1, headerStyleID); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".xlsx":
		return formatXLSX
	default:
		return formatJSON
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all proposals and votes as json, yaml or xlsx",
		Long: `Export all proposals and their votes.

Without --format the format is derived from the --output file extension. The
output file is replaced atomically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = formatFromPath(output)
			}
			if format == formatXLSX && output == "" {
				return errNoOutput
			}

			r, err := fetchReport(cmd.Context(), opts.client())
			if err != nil {
				return err
			}
			b, err := encodeReport(r, format)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(b)
				return err
			}
			if err := renameio.WriteFile(output, b, 0o644); err != nil {
				return fmt.Errorf("couldn't write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d proposals to %s\n", len(r.Proposals), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout if empty")
	return cmd
}
