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
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool   `json:"is_healthy"`
	EventSeq  uint64 `json:"event_seq"`
}

type IndexResponse struct {
	Index    uint64              `json:"index"`
	Counters governance.Counters `json:"counters"`
}

type ScoreResponse struct {
	Address    common.Address `json:"address"`
	GlassScore int64          `json:"glassScore"`
}

type ProposalCreatedResponse struct {
	ID uint64 `json:"id"`
}

// FinalizeResponse adds the deferred execution error, if any, to the
// finalization result
type FinalizeResponse struct {
	*governance.FinalizeResult
	ExecutionError string `json:"executionError,omitempty"`
}

type VaultResponse struct {
	Balance types.Wei               `json:"balance"`
	Ledger  []governance.VaultEntry `json:"ledger"`
}

type CreditResponse struct {
	Address common.Address `json:"address"`
	Credit  types.Wei      `json:"credit"`
}

type MetricsResponse struct {
	Index uint64 `json:"index"`
}

// AmountRequest is the body of join, bond top-up, deposit and withdrawal
// requests. Amounts are decimal wei strings with an optional "ether" or
// "gwei" suffix.
type AmountRequest struct {
	Amount types.Wei `json:"amount"`
}

type VoteRequest struct {
	Choice governance.Choice `json:"choice"`
}

// AdminScoreRequest adjusts a member's score by Delta, which must not be
// zero
type AdminScoreRequest struct {
	Address common.Address `json:"address"`
	Delta   int64          `json:"delta"`
}

type AdminExpelRequest struct {
	Address common.Address `json:"address"`
}

type AdminRoleRequest struct {
	Address common.Address  `json:"address"`
	Role    governance.Role `json:"role"`
	Revoke  bool            `json:"revoke"`
}
