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
	"time"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// proposalPasses applies the pass rule: the share of the whole member set
// that voted for the proposal must reach the pass criteria. Reaching it
// exactly passes.
func proposalPasses(votesFor uint32, totalMembers uint32, passCriteria uint32) bool {
	if totalMembers == 0 {
		return false
	}
	return uint64(votesFor)*100 >= uint64(passCriteria)*uint64(totalMembers)
}

// FinalizeProposal closes voting on a proposal. Voting must have expired,
// or every member must have voted. Members that did not vote are
// penalized, and a passed proposal is executed in the same transaction.
//
// If the vault cannot cover a passed treasury-out proposal, the
// finalization still commits with the proposal left Passed, and the
// result carries the execution error. ExecuteProposal retries it.
func (s *State) FinalizeProposal(
	ctx context.Context,
	caller common.Address,
	id uint64,
) (*FinalizeResult, error) {
	start := time.Now()
	var result *FinalizeResult
	err := s.mutate(ctx, "FinalizeProposal", caller, func(tc *txnContext) error {
		result = &FinalizeResult{ProposalID: id}
		p, err := tc.getProposal(id)
		if err != nil {
			return err
		}
		if Status(p.Status) != StatusPending {
			return ErrAlreadyFinalized.withMessage(
				"proposal %d is %s",
				id,
				Status(p.Status).String(),
			)
		}
		members, err := tc.db.GetMembers(false, tc.txn)
		if err != nil {
			return err
		}
		votes, err := tc.db.GetVotes(id, tc.txn)
		if err != nil {
			return err
		}
		voted := make(map[string]bool, len(votes))
		for _, vote := range votes {
			voted[vote.Voter] = true
		}
		var absent []*models.Member
		for i := range members {
			if !voted[members[i].Address] {
				absent = append(absent, &members[i])
			}
		}
		if !votingClosed(p, tc.now) && len(absent) > 0 {
			return ErrVotingStillOpen.withMessage(
				"proposal %d: %d members have not voted",
				id,
				len(absent),
			)
		}
		p.TotalMembers = uint32(len(members)) //nolint:gosec
		for _, m := range absent {
			collected, expelled, err := tc.applyAbsentPenalty(m, p)
			if err != nil {
				return err
			}
			addr := common.HexToAddress(m.Address)
			result.Penalized = append(result.Penalized, addr)
			if expelled {
				result.Expelled = append(result.Expelled, addr)
			}
			if result.PenaltiesCollected, err = result.PenaltiesCollected.Add(collected); err != nil {
				return err
			}
		}
		status := StatusRejected
		if proposalPasses(p.VotesFor, p.TotalMembers, p.Params.PassCriteria) {
			status = StatusPassed
		}
		if err := tc.setStatus(p, status); err != nil {
			return err
		}
		p.FinalizedAt = ptr(tc.now.Unix())
		if err := tc.db.SetProposal(p, tc.txn); err != nil {
			return err
		}
		if err := tc.emit(Event{
			Type:       event.ProposalFinalizedEventType,
			Caller:     ptr(caller),
			ProposalID: id,
			Status:     ptr(status),
			Tally: &Tally{
				For:          p.VotesFor,
				Against:      p.VotesAgainst,
				Abstain:      p.VotesAbstain,
				TotalMembers: p.TotalMembers,
			},
		}); err != nil {
			return err
		}
		result.Status = status
		result.Passed = status == StatusPassed
		if !result.Passed {
			return nil
		}
		execErr := tc.execute(p)
		if execErr == nil {
			result.Status = StatusExecuted
			result.Executed = true
			return nil
		}
		if KindOf(execErr) != KindResource {
			return execErr
		}
		result.ExecutionError = execErr
		return tc.deferExecution(p, execErr)
	})
	s.metrics.finalizeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if result.ExecutionError != nil {
		s.config.Logger.Warn(
			"execution of passed proposal deferred",
			"proposal", id,
			"error", result.ExecutionError,
		)
	}
	if len(result.Expelled) > 0 {
		s.config.Logger.Info(
			"members expelled at finalization",
			"proposal", id,
			"count", len(result.Expelled),
		)
	}
	return result, nil
}

// applyAbsentPenalty lowers the score of a member that did not vote, takes
// the penalty fee from their bond into the vault and runs the expulsion
// check. The penalty amounts are those recorded on the proposal.
func (tc *txnContext) applyAbsentPenalty(
	m *models.Member,
	p *models.Proposal,
) (types.Wei, bool, error) {
	addr := common.HexToAddress(m.Address)
	fee := p.Params.AbsentPenaltyFee.Min(m.Bond)
	bond, ok := m.Bond.Sub(fee)
	if !ok {
		return types.Wei{}, false, errors.New("absent penalty fee exceeds bond")
	}
	balance, err := tc.dao.VaultBalance.Add(fee)
	if err != nil {
		return types.Wei{}, false, err
	}
	m.Bond = bond
	m.GlassScore -= p.Params.AbsentPenalty
	m.PenaltyCount++
	tc.dao.VaultBalance = balance
	if err := tc.db.SetMember(m, tc.txn); err != nil {
		return types.Wei{}, false, err
	}
	if err := tc.emit(Event{
		Type:         event.PenaltyAppliedEventType,
		Address:      ptr(addr),
		ProposalID:   p.ID,
		Score:        ptr(m.GlassScore),
		ScoreDelta:   -p.Params.AbsentPenalty,
		PenaltyCount: ptr(m.PenaltyCount),
		Bond:         ptr(bond),
		Amount:       ptr(fee),
		VaultBalance: ptr(balance),
	}); err != nil {
		return types.Wei{}, false, err
	}
	if !fee.IsZero() {
		if err := tc.addVaultEntry(
			models.VaultEntryDirectionIn,
			fee,
			addr,
			VaultReasonAbsentPenalty,
			ptr(p.ID),
		); err != nil {
			return types.Wei{}, false, err
		}
	}
	expelled, err := tc.checkExpulsion(m)
	if err != nil {
		return types.Wei{}, false, err
	}
	return fee, expelled, nil
}
