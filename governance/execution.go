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
	"fmt"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// execute performs the effect of a passed proposal and marks it Executed.
// All checks that can fail with a ResourceError happen before anything is
// written, so a failed execution leaves no partial effect.
func (tc *txnContext) execute(p *models.Proposal) error {
	if Status(p.Status) == StatusExecuted {
		return ErrAlreadyExecuted.withMessage("proposal %d", p.ID)
	}
	if Status(p.Status) != StatusPassed {
		return ErrNotPassed.withMessage(
			"proposal %d is %s",
			p.ID,
			Status(p.Status).String(),
		)
	}
	p.ExecutionAttempts++
	switch SanctionType(p.SanctionType) {
	case SanctionTreasuryOut:
		if err := tc.transferOut(p); err != nil {
			return err
		}
	case SanctionRuleChange:
		if err := tc.changeRule(p); err != nil {
			return err
		}
	case SanctionTreasuryIn, SanctionGeneral:
		// Nothing to move. Treasury-in funds arrive through Deposit.
	default:
		return fmt.Errorf("proposal %d: unknown sanction type %q", p.ID, p.SanctionType)
	}
	if err := tc.setStatus(p, StatusExecuted); err != nil {
		return err
	}
	p.ExecutedAt = ptr(tc.now.Unix())
	p.LastExecutionError = ""
	if err := tc.db.SetProposal(p, tc.txn); err != nil {
		return err
	}
	if err := tc.emit(Event{
		Type:       event.ProposalExecutedEventType,
		ProposalID: p.ID,
		Status:     ptr(StatusExecuted),
	}); err != nil {
		return err
	}
	proposer, err := tc.db.GetMember(p.Proposer, false, tc.txn)
	switch {
	case err == nil:
		if err := tc.changeScore(proposer, ScoreExecuted, "proposal-executed", p.ID, nil); err != nil {
			return err
		}
	case errors.Is(err, models.ErrMemberNotFound):
		// An expelled proposer gets no reward
	default:
		return err
	}
	// New thresholds apply to the current member set at once
	if SanctionType(p.SanctionType) == SanctionRuleChange {
		switch p.RuleToChange {
		case ParamScoreToExpel, ParamCountToExpel:
			return tc.recheckExpulsions()
		}
	}
	return nil
}

// transferOut moves the proposal amount from the vault to the recipient's
// credit balance
func (tc *txnContext) transferOut(p *models.Proposal) error {
	balance, ok := tc.dao.VaultBalance.Sub(p.Amount)
	if !ok {
		return ErrInsufficientTreasury.withMessage(
			"proposal %d needs %s wei, vault holds %s wei",
			p.ID,
			p.Amount.String(),
			tc.dao.VaultBalance.String(),
		)
	}
	recipient := common.HexToAddress(p.Recipient)
	credit, err := tc.addCredit(recipient, p.Amount)
	if err != nil {
		return err
	}
	tc.dao.VaultBalance = balance
	if err := tc.emit(Event{
		Type:         event.VaultTransferEventType,
		Address:      ptr(recipient),
		ProposalID:   p.ID,
		Amount:       ptr(p.Amount),
		VaultBalance: ptr(balance),
		Credit:       ptr(credit),
	}); err != nil {
		return err
	}
	return tc.addVaultEntry(
		models.VaultEntryDirectionOut,
		p.Amount,
		recipient,
		VaultReasonTreasuryOut,
		ptr(p.ID),
	)
}

// changeRule applies a rule-change proposal to the live parameters. The
// value is checked again since the allowed ranges apply at execution time.
func (tc *txnContext) changeRule(p *models.Proposal) error {
	params := tc.params()
	oldValue, err := params.Get(p.RuleToChange)
	if err != nil {
		return err
	}
	updated, err := params.With(p.RuleToChange, p.AfterValue)
	if err != nil {
		return err
	}
	newValue, _ := updated.Get(p.RuleToChange)
	tc.dao.Params = updated.toModel()
	return tc.emit(Event{
		Type:       event.RuleChangedEventType,
		ProposalID: p.ID,
		Rule:       p.RuleToChange,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

// recheckExpulsions runs the expulsion check on every active member
func (tc *txnContext) recheckExpulsions() error {
	members, err := tc.db.GetMembers(false, tc.txn)
	if err != nil {
		return err
	}
	for i := range members {
		if _, err := tc.checkExpulsion(&members[i]); err != nil {
			return err
		}
	}
	return nil
}

// deferExecution records a failed execution attempt on a proposal that
// stays Passed
func (tc *txnContext) deferExecution(p *models.Proposal, execErr error) error {
	p.LastExecutionError = execErr.Error()
	if err := tc.db.SetProposal(p, tc.txn); err != nil {
		return err
	}
	return tc.emit(Event{
		Type:       event.ExecutionDeferredEventType,
		ProposalID: p.ID,
		Reason:     execErr.Error(),
	})
}

// ExecuteProposal retries the execution of a passed proposal whose
// execution was deferred. Any caller may retry.
func (s *State) ExecuteProposal(
	ctx context.Context,
	caller common.Address,
	id uint64,
) error {
	err := s.mutate(ctx, "ExecuteProposal", caller, func(tc *txnContext) error {
		p, err := tc.getProposal(id)
		if err != nil {
			return err
		}
		return tc.execute(p)
	})
	if err != nil {
		return err
	}
	s.config.Logger.Info(
		"executed deferred proposal",
		"proposal", id,
		"caller", caller.Hex(),
	)
	return nil
}

// ConfirmExecution records a member's confirmation that an executed
// proposal took effect
func (s *State) ConfirmExecution(
	ctx context.Context,
	caller common.Address,
	id uint64,
) error {
	return s.mutate(ctx, "ConfirmExecution", caller, func(tc *txnContext) error {
		p, err := tc.getProposal(id)
		if err != nil {
			return err
		}
		m, err := tc.getActiveMember(caller)
		if err != nil {
			return err
		}
		if Status(p.Status) != StatusExecuted {
			return ErrNotExecuted.withMessage(
				"proposal %d is %s",
				id,
				Status(p.Status).String(),
			)
		}
		existing, err := tc.db.GetConfirmation(id, caller.Hex(), tc.txn)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDoubleConfirm.withMessage(
				"%s on proposal %d",
				caller.Hex(),
				id,
			)
		}
		if err := tc.db.AddConfirmation(
			&models.Confirmation{
				ProposalId:  id,
				Member:      caller.Hex(),
				ConfirmedAt: tc.now.Unix(),
			},
			tc.txn,
		); err != nil {
			return err
		}
		if err := tc.emit(Event{
			Type:       event.ExecutionConfirmedEventType,
			Address:    ptr(caller),
			ProposalID: id,
		}); err != nil {
			return err
		}
		return tc.changeScore(m, ScoreConfirm, "execution-confirmed", id, nil)
	})
}
