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
	"strconv"

	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
)

func pathAddress(r *http.Request) (common.Address, bool) {
	value := r.PathValue("address")
	if !common.IsHexAddress(value) {
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func pathID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "Bad Request", message)
}

// handleHealth handles GET /health
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	details, err := a.dao.GetDaoDetails()
	if err != nil {
		a.logger.Error(
			"health check failed",
			"error", err,
		)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
		EventSeq:  details.EventCount,
	})
}

// handleDao handles GET /api/v1/dao
func (a *Api) handleDao(
	w http.ResponseWriter,
	_ *http.Request,
) {
	details, err := a.dao.GetDaoDetails()
	if err != nil {
		a.writeGovernanceError(w, "get DAO details", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// handleIndex handles GET /api/v1/index
func (a *Api) handleIndex(
	w http.ResponseWriter,
	_ *http.Request,
) {
	index, counters, err := a.dao.GetCorruptionIndex()
	if err != nil {
		a.writeGovernanceError(w, "get corruption index", err)
		return
	}
	writeJSON(w, http.StatusOK, IndexResponse{
		Index:    index,
		Counters: counters,
	})
}

// handleEvents handles GET /api/v1/events?after=N&limit=M
func (a *Api) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	after, limit, err := parseEventRange(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	events, err := a.dao.GetEvents(after, limit)
	if err != nil {
		a.writeGovernanceError(w, "get events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleMembers handles GET /api/v1/members. Expelled members are
// included with ?all=true.
func (a *Api) handleMembers(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	members, err := a.dao.GetMembers(includeInactive)
	if err != nil {
		a.writeGovernanceError(w, "get members", err)
		return
	}
	writeJSON(w, http.StatusOK, paginate(w, members, params))
}

// handleMember handles GET /api/v1/members/{address}
func (a *Api) handleMember(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := pathAddress(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	member, err := a.dao.GetMember(addr)
	if err != nil {
		a.writeGovernanceError(w, "get member", err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// handleMemberScore handles GET /api/v1/members/{address}/score
func (a *Api) handleMemberScore(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := pathAddress(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	score, err := a.dao.GetMemberScore(addr)
	if err != nil {
		a.writeGovernanceError(w, "get member score", err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{
		Address:    addr,
		GlassScore: score,
	})
}

// handleProposals handles GET /api/v1/proposals. ?status= filters by
// proposal status.
func (a *Api) handleProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var statusFilter *governance.Status
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		var status governance.Status
		if err := status.UnmarshalText([]byte(statusParam)); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		statusFilter = &status
	}
	proposals, err := a.dao.GetAllProposals()
	if err != nil {
		a.writeGovernanceError(w, "get proposals", err)
		return
	}
	if statusFilter != nil {
		filtered := make([]governance.Proposal, 0, len(proposals))
		for _, p := range proposals {
			if p.Status == *statusFilter {
				filtered = append(filtered, p)
			}
		}
		proposals = filtered
	}
	writeJSON(w, http.StatusOK, paginate(w, proposals, params))
}

// handleProposal handles GET /api/v1/proposals/{id}
func (a *Api) handleProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid proposal id")
		return
	}
	proposal, err := a.dao.GetProposal(id)
	if err != nil {
		a.writeGovernanceError(w, "get proposal", err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// handleProposalVotes handles GET /api/v1/proposals/{id}/votes
func (a *Api) handleProposalVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid proposal id")
		return
	}
	votes, err := a.dao.GetVotes(id)
	if err != nil {
		a.writeGovernanceError(w, "get votes", err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// handleVault handles GET /api/v1/vault
func (a *Api) handleVault(
	w http.ResponseWriter,
	_ *http.Request,
) {
	balance, err := a.dao.GetVaultBalance()
	if err != nil {
		a.writeGovernanceError(w, "get vault balance", err)
		return
	}
	ledger, err := a.dao.GetVaultLedger()
	if err != nil {
		a.writeGovernanceError(w, "get vault ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, VaultResponse{
		Balance: balance,
		Ledger:  ledger,
	})
}

// handleCredit handles GET /api/v1/credits/{address}
func (a *Api) handleCredit(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := pathAddress(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	credit, err := a.dao.GetCredit(addr)
	if err != nil {
		a.writeGovernanceError(w, "get credit", err)
		return
	}
	writeJSON(w, http.StatusOK, CreditResponse{
		Address: addr,
		Credit:  credit,
	})
}
