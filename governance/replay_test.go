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
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/glassdao/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMixedHistory drives the DAO through every kind of operation
func runMixedHistory(t *testing.T, h *testHarness) {
	t.Helper()
	ctx := context.Background()
	h.join(t, "0.07", testAlice, testBob, testCarol)
	require.NoError(t, h.state.Deposit(ctx, testDave, ether("0.3")))
	require.NoError(t, h.state.TopUpBond(ctx, testCarol, ether("0.01")))
	require.NoError(t, h.state.GrantRole(ctx, testAdmin, testBob, RoleEmergency))

	payout := h.propose(t, testAlice, ProposalInput{
		Title:        "payout",
		SanctionType: SanctionTreasuryOut,
		Amount:       ether("0.25"),
		Recipient:    testDave,
	})
	rule := h.propose(t, testBob, ProposalInput{
		Title:        "shorter votes",
		SanctionType: SanctionRuleChange,
		RuleToChange: ParamVotingDuration,
		NewValue:     "3600",
	})
	h.vote(t, payout, ChoiceFor, testAlice, testBob)
	h.vote(t, rule, ChoiceFor, testAlice, testBob, testCarol)
	_, err := h.state.FinalizeProposal(ctx, testCarol, rule)
	require.NoError(t, err)
	h.clock.Advance(testVotingDuration + time.Second)
	_, err = h.state.FinalizeProposal(ctx, testCarol, payout)
	require.NoError(t, err)

	require.NoError(t, h.state.ConfirmExecution(ctx, testCarol, payout))
	require.NoError(t, h.state.Withdraw(ctx, testDave, ether("0.05")))
	require.NoError(t, h.state.AdminSubGlassScore(ctx, testAdmin, testCarol, 40))
	_, err = h.state.UpdateMetrics(ctx, testAdmin, Counters{Proposals: 2, TreasuryOut: 1})
	require.NoError(t, err)
}

func TestReplayMatchesLiveState(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	runMixedHistory(t, h)
	snap, err := h.state.VerifyReplay()
	require.NoError(t, err)

	details, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, details.EventCount, snap.LastSeq)
	assert.Equal(t, details.VaultBalance, snap.VaultBalance)
	assert.Equal(t, details.Params, snap.Params)
	assert.Equal(t, uint64(3600), snap.Params.VotingDuration)
	assert.False(t, snap.Members[testCarol].Active)
	assert.Equal(t, ether("0.2"), snap.Credits[testDave])
	assert.Equal(t, StatusExecuted, snap.Proposals[1].Status)
	assert.Equal(t, details.CorruptionIndex, snap.CorruptionIndex)
}

func TestReplayRejectsGap(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice)
	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	_, err = Replay(events)
	require.NoError(t, err)
	_, err = Replay(append(events[:2:2], events[3:]...))
	require.ErrorContains(t, err, "gap")
}

func TestReplayRejectsIncompleteEvent(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice)
	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	last := len(events) - 1
	events[last].VaultBalance = nil
	_, err = Replay(events)
	require.ErrorContains(t, err, "missing vault balance")
}

func TestVerifyReplayDetectsDrift(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice)
	// Change a score behind the state machine's back
	txn := h.db.Transaction(true)
	require.NoError(t, txn.Do(func(txn *database.Txn) error {
		m, err := h.db.GetMember(testAlice.Hex(), false, txn)
		if err != nil {
			return err
		}
		m.GlassScore = 99
		return h.db.SetMember(m, txn)
	}))
	_, err := h.state.VerifyReplay()
	var mismatch *ReplayMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Len(t, mismatch.Diffs, 1)
	assert.Contains(t, mismatch.Diffs[0], testAlice.Hex())
}
