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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIndex(t *testing.T) {
	testDefs := []struct {
		name     string
		counters Counters
		index    uint64
	}{
		{
			name: "empty",
		},
		{
			name: "mixed",
			counters: Counters{
				Proposals:     10,
				TreasuryOut:   2,
				Rejected:      5,
				Penalties:     3,
				VotesCast:     30,
				VotesPossible: 40,
			},
			// 30*2000 + 25*5000 + 20*750 + 25*2500, over 100
			index: 2625,
		},
		{
			name: "worst",
			counters: Counters{
				Proposals:     1,
				TreasuryOut:   1,
				Rejected:      1,
				Penalties:     4,
				VotesPossible: 4,
			},
			index: 10000,
		},
		{
			name: "full participation",
			counters: Counters{
				Proposals:     4,
				VotesCast:     12,
				VotesPossible: 12,
			},
			index: 0,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			assert.Equal(t, testDef.index, ComputeIndex(testDef.counters))
		})
	}
}

func TestUpdateMetrics(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	counters := Counters{
		Proposals:     10,
		TreasuryOut:   2,
		Rejected:      5,
		Penalties:     3,
		VotesCast:     30,
		VotesPossible: 40,
	}
	index, err := h.state.UpdateMetrics(ctx, testAdmin, counters)
	require.NoError(t, err)
	assert.Equal(t, uint64(2625), index)

	stored, storedCounters, err := h.state.GetCorruptionIndex()
	require.NoError(t, err)
	assert.Equal(t, index, stored)
	assert.Equal(t, counters, storedCounters)
	details, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, index, details.CorruptionIndex)

	_, err = h.state.UpdateMetrics(ctx, testAdmin, Counters{Proposals: 1, Rejected: 2})
	require.ErrorIs(t, err, ErrInvalidFields)
	_, err = h.state.UpdateMetrics(ctx, testAdmin, Counters{VotesCast: 2, VotesPossible: 1})
	require.ErrorIs(t, err, ErrInvalidFields)
	stored, _, err = h.state.GetCorruptionIndex()
	require.NoError(t, err)
	assert.Equal(t, index, stored)
	h.verifyReplay(t)
}

func TestDeriveCounters(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.06", testAlice, testBob, testCarol)
	require.NoError(t, h.state.Deposit(ctx, testDave, ether("1")))

	payout := h.propose(t, testAlice, ProposalInput{
		Title:        "payout",
		SanctionType: SanctionTreasuryOut,
		Amount:       ether("0.1"),
		Recipient:    testDave,
	})
	h.vote(t, payout, ChoiceFor, testAlice, testBob, testCarol)
	_, err := h.state.FinalizeProposal(ctx, testAlice, payout)
	require.NoError(t, err)

	rejected := h.propose(t, testAlice, generalProposal("rejected"))
	h.vote(t, rejected, ChoiceAgainst, testAlice)
	h.clock.Advance(testVotingDuration + time.Second)
	_, err = h.state.FinalizeProposal(ctx, testAlice, rejected)
	require.NoError(t, err)

	// Still pending, so not counted
	h.propose(t, testAlice, generalProposal("pending"))

	counters, err := h.state.DeriveCounters()
	require.NoError(t, err)
	assert.Equal(
		t,
		Counters{
			Proposals:     2,
			TreasuryOut:   1,
			Rejected:      1,
			Penalties:     2,
			VotesCast:     4,
			VotesPossible: 6,
		},
		counters,
	)
	index, err := h.state.UpdateMetrics(ctx, testAdmin, counters)
	require.NoError(t, err)
	assert.Equal(t, ComputeIndex(counters), index)
}
