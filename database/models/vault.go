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

package models

import (
	"github.com/blinklabs-io/glassdao/database/types"
)

const (
	VaultEntryDirectionIn  uint8 = 1
	VaultEntryDirectionOut uint8 = 2
)

// VaultEntry is one line of the vault in/out ledger
type VaultEntry struct {
	ID           uint      `gorm:"primarykey"`
	Amount       types.Wei `gorm:"size:78;not null"`
	BalanceAfter types.Wei `gorm:"size:78;not null"`
	Counterparty string    `gorm:"index;size:42"`
	Reason       string    `gorm:"size:32;not null"`
	ProposalId   *uint64   `gorm:"index"`
	EventSeq     uint64    `gorm:"not null"`
	Timestamp    int64     `gorm:"not null"`
	Direction    uint8     `gorm:"not null"`
}

func (VaultEntry) TableName() string {
	return "vault_entry"
}

// Credit is the withdrawable balance held for an external address, funded
// by treasury payouts and bond refunds
type Credit struct {
	ID      uint      `gorm:"primarykey"`
	Address string    `gorm:"uniqueIndex;size:42;not null"`
	Amount  types.Wei `gorm:"size:78;not null"`
}

func (Credit) TableName() string {
	return "credit"
}
