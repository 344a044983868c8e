// Copyright 2025 Blink Labs Software
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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/plugin"
	"github.com/blinklabs-io/glassdao/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	plugin.Plugin

	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// DAO state
	GetDaoState(types.Txn) (*models.DaoState, error)
	SetDaoState(*models.DaoState, types.Txn) error
	GetCorruptionCounters(types.Txn) (*models.CorruptionCounters, error)
	SetCorruptionCounters(*models.CorruptionCounters, types.Txn) error

	// Members
	GetMember(
		string, // address
		bool, // includeInactive
		types.Txn,
	) (*models.Member, error)
	GetMembers(
		bool, // includeInactive
		types.Txn,
	) ([]models.Member, error)
	CountActiveMembers(types.Txn) (int64, error)
	SetMember(*models.Member, types.Txn) error

	// Proposals
	AddProposal(*models.Proposal, types.Txn) error
	SetProposal(*models.Proposal, types.Txn) error
	GetProposal(uint64, types.Txn) (*models.Proposal, error)
	GetProposals(types.Txn) ([]models.Proposal, error)
	AddVote(*models.Vote, types.Txn) error
	GetVote(
		uint64, // proposalId
		string, // voter
		types.Txn,
	) (*models.Vote, error)
	GetVotes(uint64, types.Txn) ([]models.Vote, error)
	AddConfirmation(*models.Confirmation, types.Txn) error
	GetConfirmation(
		uint64, // proposalId
		string, // member
		types.Txn,
	) (*models.Confirmation, error)

	// Vault
	AddVaultEntry(*models.VaultEntry, types.Txn) error
	GetVaultEntries(types.Txn) ([]models.VaultEntry, error)
	GetCredit(string, types.Txn) (*models.Credit, error)
	GetCredits(types.Txn) ([]models.Credit, error)
	SetCredit(*models.Credit, types.Txn) error
}

// New returns the started metadata plugin selected by name
func New(pluginName string, opts plugin.PluginOptions) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, opts)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
