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

package governance

import (
	"context"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// Counters are the raw governance metrics the corruption index is
// computed from
type Counters struct {
	Proposals     uint64 `json:"proposals"`
	TreasuryOut   uint64 `json:"treasuryOut"`
	Rejected      uint64 `json:"rejected"`
	Penalties     uint64 `json:"penalties"`
	VotesCast     uint64 `json:"votesCast"`
	VotesPossible uint64 `json:"votesPossible"`
}

// Index weights. Rates are in basis points, so the index is too.
const (
	weightTreasuryOut      = 30
	weightRejection        = 25
	weightPenalty          = 20
	weightNonParticipation = 25

	basisPoints = 10000
)

func rate(part, whole uint64) uint64 {
	if whole == 0 {
		return 0
	}
	if part >= whole {
		return basisPoints
	}
	return part * basisPoints / whole
}

// ComputeIndex returns the corruption index, from 0 to 10000 basis points,
// as the weighted average of the treasury-out, rejection, penalty and
// non-participation rates
func ComputeIndex(c Counters) uint64 {
	var nonParticipation uint64
	if c.VotesPossible > c.VotesCast {
		nonParticipation = rate(c.VotesPossible-c.VotesCast, c.VotesPossible)
	}
	weighted := weightTreasuryOut*rate(c.TreasuryOut, c.Proposals) +
		weightRejection*rate(c.Rejected, c.Proposals) +
		weightPenalty*rate(c.Penalties, c.VotesPossible) +
		weightNonParticipation*nonParticipation
	return weighted / (weightTreasuryOut + weightRejection + weightPenalty + weightNonParticipation)
}

func (c Counters) validate() error {
	if c.TreasuryOut > c.Proposals {
		return ErrInvalidFields.withMessage("treasury-out count exceeds proposal count")
	}
	if c.Rejected > c.Proposals {
		return ErrInvalidFields.withMessage("rejected count exceeds proposal count")
	}
	if c.VotesCast > c.VotesPossible {
		return ErrInvalidFields.withMessage("votes cast exceeds votes possible")
	}
	return nil
}

// UpdateMetrics stores new counters and recomputes the corruption index
func (s *State) UpdateMetrics(
	ctx context.Context,
	admin common.Address,
	counters Counters,
) (uint64, error) {
	var index uint64
	err := s.mutate(ctx, "UpdateMetrics", admin, func(tc *txnContext) error {
		if err := tc.requireAdmin(admin); err != nil {
			return err
		}
		if err := counters.validate(); err != nil {
			return err
		}
		index = ComputeIndex(counters)
		if err := tc.db.SetCorruptionCounters(
			&models.CorruptionCounters{
				ID:            models.CorruptionCountersRowId,
				Proposals:     counters.Proposals,
				TreasuryOut:   counters.TreasuryOut,
				Rejected:      counters.Rejected,
				Penalties:     counters.Penalties,
				VotesCast:     counters.VotesCast,
				VotesPossible: counters.VotesPossible,
				IndexValue:    index,
				ComputedAt:    tc.now.Unix(),
			},
			tc.txn,
		); err != nil {
			return err
		}
		return tc.emit(Event{
			Type:     event.MetricsUpdatedEventType,
			Caller:   ptr(admin),
			Counters: ptr(counters),
			Index:    ptr(index),
		})
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

// GetCorruptionIndex returns the index computed by the last UpdateMetrics
// call along with the counters it was computed from
func (s *State) GetCorruptionIndex() (uint64, Counters, error) {
	s.RLock()
	defer s.RUnlock()
	return s.corruptionIndexLocked()
}

func (s *State) corruptionIndexLocked() (uint64, Counters, error) {
	stored, err := s.db.GetCorruptionCounters(nil)
	if err != nil {
		return 0, Counters{}, err
	}
	if stored == nil {
		return 0, Counters{}, nil
	}
	return stored.IndexValue, Counters{
		Proposals:     stored.Proposals,
		TreasuryOut:   stored.TreasuryOut,
		Rejected:      stored.Rejected,
		Penalties:     stored.Penalties,
		VotesCast:     stored.VotesCast,
		VotesPossible: stored.VotesPossible,
	}, nil
}

// DeriveCounters computes the corruption counters from the stored
// proposals. Only finalized proposals are counted, and the votes possible
// on each is the member count at its finalization.
func (s *State) DeriveCounters() (Counters, error) {
	s.RLock()
	defer s.RUnlock()
	proposals, err := s.db.GetProposals(nil)
	if err != nil {
		return Counters{}, err
	}
	var ret Counters
	for _, p := range proposals {
		status := Status(p.Status)
		if status == StatusPending {
			continue
		}
		ret.Proposals++
		if status == StatusRejected {
			ret.Rejected++
		}
		if SanctionType(p.SanctionType) == SanctionTreasuryOut && status == StatusExecuted {
			ret.TreasuryOut++
		}
		// Voters expelled before finalization are not part of the member
		// count, so the votes cast are capped to it
		votesPossible := uint64(p.TotalMembers)
		votesCast := min(
			uint64(p.VotesFor)+uint64(p.VotesAgainst)+uint64(p.VotesAbstain),
			votesPossible,
		)
		ret.VotesCast += votesCast
		ret.VotesPossible += votesPossible
		ret.Penalties += votesPossible - votesCast
	}
	return ret, nil
}
