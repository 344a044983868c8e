// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

func proposalFromModel(p *models.Proposal, votes []models.Vote) Proposal {
	ret := Proposal{
		ID:                         p.ID,
		Title:                      p.Title,
		Description:                p.Description,
		Proposer:                   common.HexToAddress(p.Proposer),
		SanctionType:               SanctionType(p.SanctionType),
		Amount:                     p.Amount,
		RuleToChange:               p.RuleToChange,
		BeforeValue:                p.BeforeValue,
		AfterValue:                 p.AfterValue,
		StartTime:                  time.Unix(p.StartTime, 0).UTC(),
		Status:                     Status(p.Status),
		VotesFor:                   p.VotesFor,
		VotesAgainst:               p.VotesAgainst,
		VotesAbstain:               p.VotesAbstain,
		Voters:                     make([]common.Address, 0, len(votes)),
		Snapshot:                   ruleParamsFromModel(p.Params),
		TotalMembersAtFinalization: p.TotalMembers,
		ExecutionAttempts:          p.ExecutionAttempts,
		LastExecutionError:         p.LastExecutionError,
	}
	ret.EndTime = ret.StartTime.Add(
		time.Duration(p.Params.VotingDuration) * time.Second, //nolint:gosec
	)
	if p.Recipient != "" {
		ret.Recipient = ptr(common.HexToAddress(p.Recipient))
	}
	if p.FinalizedAt != nil {
		ret.FinalizedAt = ptr(time.Unix(*p.FinalizedAt, 0).UTC())
	}
	if p.ExecutedAt != nil {
		ret.ExecutedAt = ptr(time.Unix(*p.ExecutedAt, 0).UTC())
	}
	for _, vote := range votes {
		ret.Voters = append(ret.Voters, common.HexToAddress(vote.Voter))
	}
	return ret
}

// votingClosed reports whether the voting window of a proposal has passed
func votingClosed(p *models.Proposal, now time.Time) bool {
	//nolint:gosec
	return now.Unix() > p.StartTime+int64(p.Params.VotingDuration)
}

// validateProposalInput checks the fields required by the proposal's
// sanction type. For rule changes it returns the normalized new value.
func validateProposalInput(input *ProposalInput, params RuleParams) (string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", ErrInvalidFields.withMessage("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrInvalidFields.withMessage(
			"title is longer than %d characters",
			MaxTitleLength,
		)
	}
	if utf8.RuneCountInString(input.Description) > MaxDescriptionLength {
		return "", ErrInvalidFields.withMessage(
			"description is longer than %d characters",
			MaxDescriptionLength,
		)
	}
	switch input.SanctionType {
	case SanctionTreasuryOut:
		if input.Recipient == (common.Address{}) {
			return "", ErrInvalidFields.withMessage("recipient is required")
		}
		if input.Amount.IsZero() {
			return "", ErrInvalidFields.withMessage("amount must be positive")
		}
	case SanctionTreasuryIn:
		if input.Amount.IsZero() {
			return "", ErrInvalidFields.withMessage("amount must be positive")
		}
	case SanctionRuleChange:
		updated, err := params.With(input.RuleToChange, strings.TrimSpace(input.NewValue))
		if err != nil {
			return "", err
		}
		// Normalize so that e.g. "0.1 ether" is recorded in wei
		return updated.Get(input.RuleToChange)
	case SanctionGeneral:
	default:
		return "", ErrInvalidFields.withMessage(
			"unknown sanction type %q",
			string(input.SanctionType),
		)
	}
	return "", nil
}

// CreateProposal opens a new proposal for voting and returns its id. The
// rule parameters in effect are recorded on the proposal and apply to it
// for its whole lifetime.
func (s *State) CreateProposal(
	ctx context.Context,
	caller common.Address,
	input ProposalInput,
) (uint64, error) {
	var id uint64
	err := s.mutate(ctx, "CreateProposal", caller, func(tc *txnContext) error {
		proposer, err := tc.getActiveMember(caller)
		if err != nil {
			return err
		}
		params := tc.params()
		newValue, err := validateProposalInput(&input, params)
		if err != nil {
			return err
		}
		p := &models.Proposal{
			ID:           tc.dao.NextProposalId,
			Title:        strings.TrimSpace(input.Title),
			Description:  input.Description,
			Proposer:     caller.Hex(),
			SanctionType: string(input.SanctionType),
			Params:       tc.dao.Params,
			StartTime:    tc.now.Unix(),
			Status:       uint8(StatusPending),
		}
		switch input.SanctionType {
		case SanctionTreasuryOut:
			p.Amount = input.Amount
			p.Recipient = input.Recipient.Hex()
		case SanctionTreasuryIn:
			p.Amount = input.Amount
		case SanctionRuleChange:
			p.RuleToChange = input.RuleToChange
			p.AfterValue = newValue
			p.BeforeValue, _ = params.Get(input.RuleToChange)
		}
		if err := tc.db.AddProposal(p, tc.txn); err != nil {
			return err
		}
		tc.dao.NextProposalId++
		id = p.ID
		created := proposalFromModel(p, nil)
		if err := tc.emit(Event{
			Type:       event.ProposalCreatedEventType,
			Address:    ptr(caller),
			ProposalID: p.ID,
			Proposal:   &created,
		}); err != nil {
			return err
		}
		return tc.changeScore(proposer, ScoreCreateProposal, "proposal-created", p.ID, nil)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Vote records the caller's choice on a pending proposal
func (s *State) Vote(
	ctx context.Context,
	caller common.Address,
	id uint64,
	choice Choice,
) error {
	return s.mutate(ctx, "Vote", caller, func(tc *txnContext) error {
		p, err := tc.getProposal(id)
		if err != nil {
			return err
		}
		voter, err := tc.getActiveMember(caller)
		if err != nil {
			return err
		}
		if !choice.Valid() {
			return ErrInvalidFields.withMessage("invalid vote choice %d", uint8(choice))
		}
		if Status(p.Status) != StatusPending {
			return ErrNotPending.withMessage(
				"proposal %d is %s",
				id,
				Status(p.Status).String(),
			)
		}
		if votingClosed(p, tc.now) {
			return ErrVotingClosed.withMessage("proposal %d", id)
		}
		existing, err := tc.db.GetVote(id, caller.Hex(), tc.txn)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDoubleVote.withMessage(
				"%s on proposal %d",
				caller.Hex(),
				id,
			)
		}
		if err := tc.db.AddVote(
			&models.Vote{
				ProposalId: id,
				Voter:      caller.Hex(),
				CastAt:     tc.now.Unix(),
				Choice:     uint8(choice),
			},
			tc.txn,
		); err != nil {
			return err
		}
		switch choice {
		case ChoiceFor:
			p.VotesFor++
		case ChoiceAgainst:
			p.VotesAgainst++
		case ChoiceAbstain:
			p.VotesAbstain++
		}
		if err := tc.db.SetProposal(p, tc.txn); err != nil {
			return err
		}
		if err := tc.emit(Event{
			Type:       event.VoteCastEventType,
			Address:    ptr(caller),
			ProposalID: id,
			Choice:     choice,
			Tally: &Tally{
				For:     p.VotesFor,
				Against: p.VotesAgainst,
				Abstain: p.VotesAbstain,
			},
		}); err != nil {
			return err
		}
		return tc.changeScore(voter, ScoreVote, "vote", id, nil)
	})
}

func (tc *txnContext) getProposal(id uint64) (*models.Proposal, error) {
	p, err := tc.db.GetProposal(id, tc.txn)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, ErrProposalNotFound.withMessage("id %d", id)
		}
		return nil, err
	}
	return p, nil
}

// setStatus moves a proposal to a new status, refusing any transition
// outside Pending -> {Passed, Rejected} -> Executed
func (tc *txnContext) setStatus(p *models.Proposal, to Status) error {
	from := Status(p.Status)
	if !from.canTransition(to) {
		return ErrNotPending.withMessage(
			"proposal %d cannot move from %s to %s",
			p.ID,
			from.String(),
			to.String(),
		)
	}
	p.Status = uint8(to)
	return nil
}

// GetProposal returns a proposal along with the addresses that voted on it
func (s *State) GetProposal(id uint64) (*Proposal, error) {
	s.RLock()
	defer s.RUnlock()
	p, err := s.db.GetProposal(id, nil)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, ErrProposalNotFound.withMessage("id %d", id)
		}
		return nil, err
	}
	votes, err := s.db.GetVotes(id, nil)
	if err != nil {
		return nil, err
	}
	ret := proposalFromModel(p, votes)
	return &ret, nil
}

// GetAllProposals returns every proposal ordered by id
func (s *State) GetAllProposals() ([]Proposal, error) {
	s.RLock()
	defer s.RUnlock()
	proposals, err := s.db.GetProposals(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Proposal, 0, len(proposals))
	for i := range proposals {
		votes, err := s.db.GetVotes(proposals[i].ID, nil)
		if err != nil {
			return nil, err
		}
		ret = append(ret, proposalFromModel(&proposals[i], votes))
	}
	return ret, nil
}

// GetVotes returns the votes recorded on a proposal
func (s *State) GetVotes(id uint64) ([]VoteRecord, error) {
	s.RLock()
	defer s.RUnlock()
	if _, err := s.db.GetProposal(id, nil); err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, ErrProposalNotFound.withMessage("id %d", id)
		}
		return nil, err
	}
	votes, err := s.db.GetVotes(id, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]VoteRecord, 0, len(votes))
	for _, vote := range votes {
		ret = append(ret, VoteRecord{
			ProposalID: vote.ProposalId,
			Voter:      common.HexToAddress(vote.Voter),
			Choice:     Choice(vote.Choice),
			CastAt:     time.Unix(vote.CastAt, 0).UTC(),
		})
	}
	return ret, nil
}
