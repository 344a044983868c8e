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
	"fmt"
	"time"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// vaultIn credits the vault and records a VaultDeposit event along with
// the ledger entry
func (tc *txnContext) vaultIn(
	amount types.Wei,
	from common.Address,
	reason string,
	proposalId *uint64,
) error {
	balance, err := tc.dao.VaultBalance.Add(amount)
	if err != nil {
		return fmt.Errorf("vault balance: %w", err)
	}
	tc.dao.VaultBalance = balance
	evt := Event{
		Type:         event.VaultDepositEventType,
		Address:      ptr(from),
		Amount:       ptr(amount),
		VaultBalance: ptr(balance),
		Reason:       reason,
	}
	if proposalId != nil {
		evt.ProposalID = *proposalId
	}
	if err := tc.emit(evt); err != nil {
		return err
	}
	return tc.addVaultEntry(
		models.VaultEntryDirectionIn,
		amount,
		from,
		reason,
		proposalId,
	)
}

// addVaultEntry appends a line to the vault ledger referencing the most
// recently emitted event
func (tc *txnContext) addVaultEntry(
	direction uint8,
	amount types.Wei,
	counterparty common.Address,
	reason string,
	proposalId *uint64,
) error {
	return tc.db.AddVaultEntry(
		&models.VaultEntry{
			Amount:       amount,
			BalanceAfter: tc.dao.VaultBalance,
			Counterparty: counterparty.Hex(),
			Reason:       reason,
			ProposalId:   proposalId,
			EventSeq:     tc.dao.EventSeq,
			Timestamp:    tc.now.Unix(),
			Direction:    direction,
		},
		tc.txn,
	)
}

// addCredit increases the withdrawable balance of an address and returns
// the new balance
func (tc *txnContext) addCredit(
	addr common.Address,
	amount types.Wei,
) (types.Wei, error) {
	credit, err := tc.db.GetCredit(addr.Hex(), tc.txn)
	if err != nil {
		return types.Wei{}, err
	}
	if amount.IsZero() {
		return credit.Amount, nil
	}
	if credit.Amount, err = credit.Amount.Add(amount); err != nil {
		return types.Wei{}, fmt.Errorf("credit balance: %w", err)
	}
	if err := tc.db.SetCredit(credit, tc.txn); err != nil {
		return types.Wei{}, err
	}
	return credit.Amount, nil
}

// Deposit adds funds to the vault
func (s *State) Deposit(
	ctx context.Context,
	from common.Address,
	amount types.Wei,
) error {
	return s.mutate(ctx, "Deposit", from, func(tc *txnContext) error {
		if amount.IsZero() {
			return ErrInvalidFields.withMessage("amount must be positive")
		}
		return tc.vaultIn(amount, from, VaultReasonDeposit, nil)
	})
}

// Withdraw pays out part of the caller's credit balance
func (s *State) Withdraw(
	ctx context.Context,
	caller common.Address,
	amount types.Wei,
) error {
	return s.mutate(ctx, "Withdraw", caller, func(tc *txnContext) error {
		if amount.IsZero() {
			return ErrInvalidFields.withMessage("amount must be positive")
		}
		credit, err := tc.db.GetCredit(caller.Hex(), tc.txn)
		if err != nil {
			return err
		}
		remaining, ok := credit.Amount.Sub(amount)
		if !ok {
			return ErrInsufficientCredit.withMessage(
				"requested %s wei, available %s wei",
				amount.String(),
				credit.Amount.String(),
			)
		}
		credit.Amount = remaining
		if err := tc.db.SetCredit(credit, tc.txn); err != nil {
			return err
		}
		return tc.emit(Event{
			Type:    event.CreditWithdrawnEventType,
			Address: ptr(caller),
			Amount:  ptr(amount),
			Credit:  ptr(remaining),
		})
	})
}

// GetVaultBalance returns the current vault balance
func (s *State) GetVaultBalance() (types.Wei, error) {
	s.RLock()
	defer s.RUnlock()
	daoState, err := s.db.GetDaoState(nil)
	if err != nil {
		return types.Wei{}, err
	}
	if daoState == nil {
		return types.Wei{}, ErrNotInitialized
	}
	return daoState.VaultBalance, nil
}

// GetVaultLedger returns every vault movement in order
func (s *State) GetVaultLedger() ([]VaultEntry, error) {
	s.RLock()
	defer s.RUnlock()
	entries, err := s.db.GetVaultEntries(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]VaultEntry, 0, len(entries))
	for _, entry := range entries {
		tmpEntry := VaultEntry{
			Direction:    "in",
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			Reason:       entry.Reason,
			ProposalID:   entry.ProposalId,
			EventSeq:     entry.EventSeq,
			Timestamp:    time.Unix(entry.Timestamp, 0).UTC(),
		}
		if entry.Direction == models.VaultEntryDirectionOut {
			tmpEntry.Direction = "out"
		}
		if entry.Counterparty != "" {
			tmpEntry.Counterparty = ptr(common.HexToAddress(entry.Counterparty))
		}
		ret = append(ret, tmpEntry)
	}
	return ret, nil
}

// GetCredit returns the withdrawable balance of an address
func (s *State) GetCredit(addr common.Address) (types.Wei, error) {
	s.RLock()
	defer s.RUnlock()
	credit, err := s.db.GetCredit(addr.Hex(), nil)
	if err != nil {
		return types.Wei{}, err
	}
	return credit.Amount, nil
}
