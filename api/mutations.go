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
	"net/http"

	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
)

// callerAndBody resolves the caller and decodes the request body. On
// failure the error response is written and false is returned.
func callerAndBody(
	w http.ResponseWriter,
	r *http.Request,
	body any,
) (common.Address, bool) {
	addr, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return common.Address{}, false
	}
	if body != nil {
		if err := decodeBody(w, r, body); err != nil {
			writeBadRequest(w, "invalid request body: "+err.Error())
			return common.Address{}, false
		}
	}
	return addr, true
}

// handleJoin handles POST /api/v1/members
func (a *Api) handleJoin(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AmountRequest
	addr, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	if err := a.dao.JoinDAO(r.Context(), addr, req.Amount); err != nil {
		a.writeGovernanceError(w, "join DAO", err)
		return
	}
	member, err := a.dao.GetMember(addr)
	if err != nil {
		a.writeGovernanceError(w, "get member", err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// handleTopUpBond handles POST /api/v1/members/bond
func (a *Api) handleTopUpBond(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AmountRequest
	addr, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	if err := a.dao.TopUpBond(r.Context(), addr, req.Amount); err != nil {
		a.writeGovernanceError(w, "top up bond", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateProposal handles POST /api/v1/proposals
func (a *Api) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	var input governance.ProposalInput
	addr, ok := callerAndBody(w, r, &input)
	if !ok {
		return
	}
	id, err := a.dao.CreateProposal(r.Context(), addr, input)
	if err != nil {
		a.writeGovernanceError(w, "create proposal", err)
		return
	}
	writeJSON(w, http.StatusCreated, ProposalCreatedResponse{ID: id})
}

// handleVote handles POST /api/v1/proposals/{id}/votes
func (a *Api) handleVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid proposal id")
		return
	}
	var req VoteRequest
	addr, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	if err := a.dao.Vote(r.Context(), addr, id, req.Choice); err != nil {
		a.writeGovernanceError(w, "vote", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFinalize handles POST /api/v1/proposals/{id}/finalize. A passed
// proposal whose execution was deferred still returns 200 with the
// execution error in the response.
func (a *Api) handleFinalize(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid proposal id")
		return
	}
	addr, ok := callerAndBody(w, r, nil)
	if !ok {
		return
	}
	result, err := a.dao.FinalizeProposal(r.Context(), addr, id)
	if err != nil {
		a.writeGovernanceError(w, "finalize proposal", err)
		return
	}
	resp := FinalizeResponse{FinalizeResult: result}
	if result.ExecutionError != nil {
		resp.ExecutionError = result.ExecutionError.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExecute handles POST /api/v1/proposals/{id}/execute
func (a *Api) handleExecute(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid proposal id")
		return
	}
	addr, ok := callerAndBody(w, r, nil)
	if !ok {
		return
	}
	if err := a.dao.ExecuteProposal(r.Context(), addr, id); err != nil {
		a.writeGovernanceError(w, "execute proposal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfirm handles POST /api/v1/proposals/{id}/confirm
func (a *Api) handleConfirm(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid proposal id")
		return
	}
	addr, ok := callerAndBody(w, r, nil)
	if !ok {
		return
	}
	if err := a.dao.ConfirmExecution(r.Context(), addr, id); err != nil {
		a.writeGovernanceError(w, "confirm execution", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeposit handles POST /api/v1/vault/deposits
func (a *Api) handleDeposit(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AmountRequest
	addr, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	if err := a.dao.Deposit(r.Context(), addr, req.Amount); err != nil {
		a.writeGovernanceError(w, "deposit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWithdraw handles POST /api/v1/credits/withdrawals
func (a *Api) handleWithdraw(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AmountRequest
	addr, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	if err := a.dao.Withdraw(r.Context(), addr, req.Amount); err != nil {
		a.writeGovernanceError(w, "withdraw", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminScore handles POST /api/v1/admin/score. A negative delta is
// a deduction.
func (a *Api) handleAdminScore(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AdminScoreRequest
	admin, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	var err error
	switch {
	case req.Delta < 0:
		err = a.dao.AdminSubGlassScore(r.Context(), admin, req.Address, -req.Delta)
	case req.Delta > 0:
		err = a.dao.AdminAddGlassScore(r.Context(), admin, req.Address, req.Delta)
	default:
		writeBadRequest(w, "delta must not be zero")
		return
	}
	if err != nil {
		a.writeGovernanceError(w, "adjust score", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminExpel handles POST /api/v1/admin/expel
func (a *Api) handleAdminExpel(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AdminExpelRequest
	admin, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	if err := a.dao.AdminExpel(r.Context(), admin, req.Address); err != nil {
		a.writeGovernanceError(w, "expel member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminRole handles POST /api/v1/admin/roles
func (a *Api) handleAdminRole(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AdminRoleRequest
	admin, ok := callerAndBody(w, r, &req)
	if !ok {
		return
	}
	var err error
	if req.Revoke {
		err = a.dao.RevokeRole(r.Context(), admin, req.Address, req.Role)
	} else {
		err = a.dao.GrantRole(r.Context(), admin, req.Address, req.Role)
	}
	if err != nil {
		a.writeGovernanceError(w, "change role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminMetrics handles POST /api/v1/admin/metrics
func (a *Api) handleAdminMetrics(
	w http.ResponseWriter,
	r *http.Request,
) {
	var counters governance.Counters
	admin, ok := callerAndBody(w, r, &counters)
	if !ok {
		return
	}
	index, err := a.dao.UpdateMetrics(r.Context(), admin, counters)
	if err != nil {
		a.writeGovernanceError(w, "update metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, MetricsResponse{Index: index})
}
