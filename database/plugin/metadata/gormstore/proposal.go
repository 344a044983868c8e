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

package gormstore

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
	"gorm.io/gorm"
)

// AddProposal inserts a new proposal
func (s *Store) AddProposal(proposal *models.Proposal, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		return fmt.Errorf("create proposal %d: %w", proposal.ID, result.Error)
	}
	return nil
}

// SetProposal writes all fields of an existing proposal
func (s *Store) SetProposal(proposal *models.Proposal, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(proposal); result.Error != nil {
		return fmt.Errorf("update proposal %d: %w", proposal.ID, result.Error)
	}
	return nil
}

// GetProposal returns a proposal by ID
func (s *Store) GetProposal(id uint64, txn types.Txn) (*models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Proposal{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrProposalNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetProposals returns all proposals ordered by ID
func (s *Store) GetProposals(txn types.Txn) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddVote records a vote. The unique index on (proposal, voter) rejects a
// second vote from the same member.
func (s *Store) AddVote(vote *models.Vote, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		return fmt.Errorf(
			"create vote on proposal %d by %s: %w",
			vote.ProposalId,
			vote.Voter,
			result.Error,
		)
	}
	return nil
}

// GetVote returns the vote cast by voter on a proposal, or nil if none
func (s *Store) GetVote(
	proposalId uint64,
	voter string,
	txn types.Txn,
) (*models.Vote, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Vote{}
	result := db.Where("proposal_id = ? AND voter = ?", proposalId, voter).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetVotes returns all votes on a proposal in the order they were cast
func (s *Store) GetVotes(proposalId uint64, txn types.Txn) ([]models.Vote, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Vote
	result := db.Where("proposal_id = ?", proposalId).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddConfirmation records a member confirming a proposal's execution
func (s *Store) AddConfirmation(
	confirmation *models.Confirmation,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(confirmation).Error
}

// GetConfirmation returns a member's execution confirmation, or nil if none
func (s *Store) GetConfirmation(
	proposalId uint64,
	member string,
	txn types.Txn,
) (*models.Confirmation, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Confirmation{}
	result := db.Where("proposal_id = ? AND member = ?", proposalId, member).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}
