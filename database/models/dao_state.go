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

// DaoStateRowId is the primary key of the single DAO state row
const DaoStateRowId = 1

// RuleParams holds the mutable DAO rule parameters. It is embedded in the
// DAO state row (live values) and in each proposal (values in effect when
// the proposal was created).
type RuleParams struct {
	EntryFee         types.Wei `gorm:"size:78;not null"`
	AbsentPenaltyFee types.Wei `gorm:"size:78;not null"`
	VotingDuration   uint64    `gorm:"not null"` // seconds
	AbsentPenalty    int64     `gorm:"not null"`
	ScoreToExpel     int64     `gorm:"not null"`
	PassCriteria     uint32    `gorm:"not null"` // percent
	CountToExpel     uint32    `gorm:"not null"`
}

// DaoState is the single row of DAO-wide state
type DaoState struct {
	ID             uint       `gorm:"primarykey"`
	Name           string     `gorm:"size:128;not null"`
	VaultBalance   types.Wei  `gorm:"size:78;not null"`
	Params         RuleParams `gorm:"embedded;embeddedPrefix:param_"`
	NextProposalId uint64     `gorm:"not null"`
	EventSeq       uint64     `gorm:"not null"`
	GenesisTime    int64      `gorm:"not null"`
}

func (DaoState) TableName() string {
	return "dao_state"
}
