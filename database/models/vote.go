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

// Vote records a single member's choice on a proposal
type Vote struct {
	ID         uint   `gorm:"primarykey"`
	ProposalId uint64 `gorm:"uniqueIndex:idx_vote_proposal_voter,priority:1;not null"`
	Voter      string `gorm:"uniqueIndex:idx_vote_proposal_voter,priority:2;size:42;not null"`
	CastAt     int64  `gorm:"not null"`
	Choice     uint8  `gorm:"not null"`
}

func (Vote) TableName() string {
	return "vote"
}

// Confirmation records a member confirming the execution of a proposal
type Confirmation struct {
	ID          uint   `gorm:"primarykey"`
	ProposalId  uint64 `gorm:"uniqueIndex:idx_confirmation_proposal_member,priority:1;not null"`
	Member      string `gorm:"uniqueIndex:idx_confirmation_proposal_member,priority:2;size:42;not null"`
	ConfirmedAt int64  `gorm:"not null"`
}

func (Confirmation) TableName() string {
	return "confirmation"
}
