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

package database

import (
	"github.com/blinklabs-io/glassdao/database/models"
)

func (d *Database) AddProposal(proposal *models.Proposal, txn *Txn) error {
	return d.metadata.AddProposal(proposal, metadataTxn(txn))
}

func (d *Database) SetProposal(proposal *models.Proposal, txn *Txn) error {
	return d.metadata.SetProposal(proposal, metadataTxn(txn))
}

func (d *Database) GetProposal(
	id uint64,
	txn *Txn,
) (*models.Proposal, error) {
	return d.metadata.GetProposal(id, metadataTxn(txn))
}

// GetProposals returns all proposals ordered by id
func (d *Database) GetProposals(txn *Txn) ([]models.Proposal, error) {
	return d.metadata.GetProposals(metadataTxn(txn))
}

func (d *Database) AddVote(vote *models.Vote, txn *Txn) error {
	return d.metadata.AddVote(vote, metadataTxn(txn))
}

// GetVote returns the vote cast by voter on the proposal, or nil if there
// is none
func (d *Database) GetVote(
	proposalId uint64,
	voter string,
	txn *Txn,
) (*models.Vote, error) {
	return d.metadata.GetVote(proposalId, voter, metadataTxn(txn))
}

func (d *Database) GetVotes(
	proposalId uint64,
	txn *Txn,
) ([]models.Vote, error) {
	return d.metadata.GetVotes(proposalId, metadataTxn(txn))
}

func (d *Database) AddConfirmation(
	confirmation *models.Confirmation,
	txn *Txn,
) error {
	return d.metadata.AddConfirmation(confirmation, metadataTxn(txn))
}

func (d *Database) GetConfirmation(
	proposalId uint64,
	member string,
	txn *Txn,
) (*models.Confirmation, error) {
	return d.metadata.GetConfirmation(proposalId, member, metadataTxn(txn))
}
