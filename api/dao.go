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

package api

import (
	"context"

	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
)

// Dao is the governance state served by the API. It is implemented by
// *governance.State.
type Dao interface {
	GetDaoDetails() (*governance.DaoDetails, error)
	GetCorruptionIndex() (uint64, governance.Counters, error)
	GetEvents(afterSeq uint64, limit int) ([]governance.Event, error)

	GetMembers(includeInactive bool) ([]governance.Member, error)
	GetMember(addr common.Address) (*governance.Member, error)
	GetMemberScore(addr common.Address) (int64, error)
	JoinDAO(ctx context.Context, caller common.Address, payment types.Wei) error
	TopUpBond(ctx context.Context, caller common.Address, amount types.Wei) error

	GetAllProposals() ([]governance.Proposal, error)
	GetProposal(id uint64) (*governance.Proposal, error)
	GetVotes(id uint64) ([]governance.VoteRecord, error)
	CreateProposal(
		ctx context.Context,
		caller common.Address,
		input governance.ProposalInput,
	) (uint64, error)
	Vote(
		ctx context.Context,
		caller common.Address,
		id uint64,
		choice governance.Choice,
	) error
	FinalizeProposal(
		ctx context.Context,
		caller common.Address,
		id uint64,
	) (*governance.FinalizeResult, error)
	ExecuteProposal(ctx context.Context, caller common.Address, id uint64) error
	ConfirmExecution(ctx context.Context, caller common.Address, id uint64) error

	GetVaultBalance() (types.Wei, error)
	GetVaultLedger() ([]governance.VaultEntry, error)
	GetCredit(addr common.Address) (types.Wei, error)
	Deposit(ctx context.Context, from common.Address, amount types.Wei) error
	Withdraw(ctx context.Context, caller common.Address, amount types.Wei) error

	AdminSubGlassScore(
		ctx context.Context,
		admin common.Address,
		addr common.Address,
		amount int64,
	) error
	AdminAddGlassScore(
		ctx context.Context,
		admin common.Address,
		addr common.Address,
		amount int64,
	) error
	AdminExpel(ctx context.Context, admin common.Address, addr common.Address) error
	GrantRole(
		ctx context.Context,
		admin common.Address,
		addr common.Address,
		role governance.Role,
	) error
	RevokeRole(
		ctx context.Context,
		admin common.Address,
		addr common.Address,
		role governance.Role,
	) error
	UpdateMetrics(
		ctx context.Context,
		admin common.Address,
		counters governance.Counters,
	) (uint64, error)
}

var _ Dao = (*governance.State)(nil)
