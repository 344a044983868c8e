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
	"errors"

	"github.com/blinklabs-io/glassdao/database/types"
)

var ErrProposalNotFound = errors.New("proposal not found")

// Proposal is a governance action record. Proposals are never deleted.
type Proposal struct {
	ID                 uint64     `gorm:"primarykey;autoIncrement:false"`
	Title              string     `gorm:"size:200;not null"`
	Description        string     `gorm:"type:text"`
	Proposer           string     `gorm:"index;size:42;not null"`
	SanctionType       string     `gorm:"size:16;not null"`
	Amount             types.Wei  `gorm:"size:78;not null"`
	Recipient          string     `gorm:"size:42"`
	RuleToChange       string     `gorm:"size:32"`
	BeforeValue        string     `gorm:"size:78"`
	AfterValue         string     `gorm:"size:78"`
	Params             RuleParams `gorm:"embedded;embeddedPrefix:param_"`
	StartTime          int64      `gorm:"index;not null"`
	FinalizedAt        *int64
	ExecutedAt         *int64
	LastExecutionError string `gorm:"size:255"`
	Status             uint8  `gorm:"index;not null"`
	VotesFor           uint32 `gorm:"not null"`
	VotesAgainst       uint32 `gorm:"not null"`
	VotesAbstain       uint32 `gorm:"not null"`
	TotalMembers       uint32 `gorm:"not null"` // active members at finalization
	ExecutionAttempts  uint32 `gorm:"not null"`
}

func (Proposal) TableName() string {
	return "proposal"
}
