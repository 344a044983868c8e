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
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVotingDuration = 3 * 24 * time.Hour

func TestTreasuryOutExecutesOnFullParticipation(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)
	id := h.propose(t, testAlice, ProposalInput{
		Title:        "pay bob",
		SanctionType: SanctionTreasuryOut,
		Amount:       ether("0.01"),
		Recipient:    testBob,
	})
	h.vote(t, id, ChoiceFor, testAlice, testBob)

	result, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.True(t, result.Executed)
	assert.Equal(t, StatusExecuted, result.Status)
	assert.Empty(t, result.Penalized)

	p, err := h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, p.Status)
	assert.Equal(t, uint32(2), p.TotalMembersAtFinalization)
	assert.NotNil(t, p.FinalizedAt)
	assert.NotNil(t, p.ExecutedAt)

	credit, err := h.state.GetCredit(testBob)
	require.NoError(t, err)
	assert.Equal(t, ether("0.01"), credit)
	// Each exact-fee join holds one penalty fee back as bond
	balance, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	assert.Equal(t, ether("0.088"), balance)

	assert.Equal(t, int64(58), h.score(t, testAlice))
	assert.Equal(t, int64(51), h.score(t, testBob))

	require.NoError(t, h.state.Withdraw(ctx, testBob, ether("0.004")))
	err = h.state.Withdraw(ctx, testBob, ether("0.01"))
	require.ErrorIs(t, err, ErrInsufficientCredit)
	credit, err = h.state.GetCredit(testBob)
	require.NoError(t, err)
	assert.Equal(t, ether("0.006"), credit)
	h.verifyReplay(t)
}

func TestAbsentMembersPenalizedAfterExpiry(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.06", testAlice, testBob, testCarol, testDave)
	id := h.propose(t, testAlice, generalProposal("quorum"))
	h.vote(t, id, ChoiceFor, testAlice, testBob)

	_, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.ErrorIs(t, err, ErrVotingStillOpen)

	before, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	h.clock.Advance(testVotingDuration + time.Second)
	err = h.state.Vote(ctx, testCarol, id, ChoiceAgainst)
	require.ErrorIs(t, err, ErrVotingClosed)

	result, err := h.state.FinalizeProposal(ctx, testBob, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{testCarol, testDave}, result.Penalized)
	assert.Empty(t, result.Expelled)
	assert.Equal(t, ether("0.002"), result.PenaltiesCollected)
	// 2 of 4 is exactly the 50% threshold
	assert.True(t, result.Passed)

	after, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	gained, ok := after.Sub(before)
	require.True(t, ok)
	assert.Equal(t, result.PenaltiesCollected, gained)

	for _, addr := range []common.Address{testCarol, testDave} {
		member, err := h.state.GetMember(addr)
		require.NoError(t, err)
		assert.Equal(t, int64(45), member.GlassScore)
		assert.Equal(t, uint32(1), member.PenaltyCount)
		assert.Equal(t, ether("0.009"), member.Bond)
	}
	assert.Equal(t, int64(58), h.score(t, testAlice))
	assert.Equal(t, int64(51), h.score(t, testBob))
	h.verifyReplay(t)
}

func TestAbsentPenaltyAtEntryFeePrice(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob, testCarol, testDave)
	id := h.propose(t, testAlice, generalProposal("exact fee"))
	h.vote(t, id, ChoiceFor, testAlice, testBob)

	before, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	assert.Equal(t, ether("0.196"), before)
	h.clock.Advance(testVotingDuration + time.Second)
	result, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{testCarol, testDave}, result.Penalized)
	assert.Equal(t, ether("0.002"), result.PenaltiesCollected)

	after, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	gained, ok := after.Sub(before)
	require.True(t, ok)
	assert.Equal(t, ether("0.002"), gained)
	for _, addr := range []common.Address{testCarol, testDave} {
		member, err := h.state.GetMember(addr)
		require.NoError(t, err)
		assert.Equal(t, int64(45), member.GlassScore)
		assert.Equal(t, uint32(1), member.PenaltyCount)
		assert.True(t, member.Bond.IsZero())
	}
	h.verifyReplay(t)
}

func TestPenaltyFeeLimitedToBond(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice, testBob)
	var collected []types.Wei
	for range 2 {
		id := h.propose(t, testAlice, generalProposal("no bond"))
		h.vote(t, id, ChoiceAgainst, testAlice)
		h.clock.Advance(testVotingDuration + time.Second)
		result, err := h.state.FinalizeProposal(context.Background(), testAlice, id)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{testBob}, result.Penalized)
		assert.Equal(t, StatusRejected, result.Status)
		collected = append(collected, result.PenaltiesCollected)
	}
	// The held bond covers the first penalty only
	assert.Equal(t, ether("0.001"), collected[0])
	assert.True(t, collected[1].IsZero())
	assert.Equal(t, int64(40), h.score(t, testBob))
	h.verifyReplay(t)
}

func TestRepeatedPenaltiesExpel(t *testing.T) {
	genesis := testGenesis()
	genesis.Params.CountToExpel = 2
	h := newTestHarness(t, "", genesis)
	ctx := context.Background()
	h.join(t, "0.06", testAlice, testBob)
	for i := range 2 {
		id := h.propose(t, testAlice, generalProposal("absent"))
		h.vote(t, id, ChoiceFor, testAlice)
		h.clock.Advance(testVotingDuration + time.Second)
		result, err := h.state.FinalizeProposal(ctx, testAlice, id)
		require.NoError(t, err)
		if i == 0 {
			assert.Empty(t, result.Expelled)
		} else {
			assert.Equal(t, []common.Address{testBob}, result.Expelled)
		}
	}
	isMember, err := h.state.IsMember(testBob)
	require.NoError(t, err)
	assert.False(t, isMember)
	member, err := h.state.GetMember(testBob)
	require.NoError(t, err)
	assert.True(t, member.Bond.IsZero())
	assert.NotNil(t, member.ExpelledAt)
	// Remaining bond is refunded as credit
	credit, err := h.state.GetCredit(testBob)
	require.NoError(t, err)
	assert.Equal(t, ether("0.008"), credit)
	h.verifyReplay(t)
}

func TestDoubleVote(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice, testBob)
	id := h.propose(t, testAlice, generalProposal("once"))
	h.vote(t, id, ChoiceAbstain, testBob)
	err := h.state.Vote(context.Background(), testBob, id, ChoiceFor)
	require.ErrorIs(t, err, ErrDoubleVote)
	p, err := h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Zero(t, p.VotesFor)
	assert.Equal(t, uint32(1), p.VotesAbstain)
	assert.Equal(t, int64(51), h.score(t, testBob))
	votes, err := h.state.GetVotes(id)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, testBob, votes[0].Voter)
	assert.Equal(t, ChoiceAbstain, votes[0].Choice)
}

func TestVoteValidation(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice)
	id := h.propose(t, testAlice, generalProposal("checks"))
	require.ErrorIs(t, h.state.Vote(ctx, testCarol, id, ChoiceFor), ErrNotMember)
	require.ErrorIs(t, h.state.Vote(ctx, testAlice, id, Choice(9)), ErrInvalidFields)
	require.ErrorIs(t, h.state.Vote(ctx, testAlice, id+1, ChoiceFor), ErrProposalNotFound)
	// The window end is inclusive
	h.clock.Advance(testVotingDuration)
	require.NoError(t, h.state.Vote(ctx, testAlice, id, ChoiceFor))
}

func TestFinalizeIsIdempotent(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.06", testAlice, testBob)
	id := h.propose(t, testAlice, generalProposal("twice"))
	h.vote(t, id, ChoiceFor, testAlice)
	h.clock.Advance(testVotingDuration + time.Second)
	_, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)

	details, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	bobScore := h.score(t, testBob)

	_, err = h.state.FinalizeProposal(ctx, testAlice, id)
	require.ErrorIs(t, err, ErrAlreadyFinalized)
	require.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, KindStateConflict, KindOf(err))

	after, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, details.EventCount, after.EventCount)
	assert.Equal(t, details.VaultBalance, after.VaultBalance)
	assert.Equal(t, bobScore, h.score(t, testBob))
}

func TestCreateProposalValidation(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice)
	testDefs := []struct {
		name  string
		input ProposalInput
	}{
		{
			name:  "empty title",
			input: ProposalInput{Title: "  ", SanctionType: SanctionGeneral},
		},
		{
			name:  "long title",
			input: ProposalInput{Title: strings.Repeat("x", MaxTitleLength+1), SanctionType: SanctionGeneral},
		},
		{
			name:  "unknown sanction",
			input: ProposalInput{Title: "x", SanctionType: "burn"},
		},
		{
			name:  "treasury-out without recipient",
			input: ProposalInput{Title: "x", SanctionType: SanctionTreasuryOut, Amount: ether("1")},
		},
		{
			name:  "treasury-out without amount",
			input: ProposalInput{Title: "x", SanctionType: SanctionTreasuryOut, Recipient: testBob},
		},
		{
			name:  "treasury-in without amount",
			input: ProposalInput{Title: "x", SanctionType: SanctionTreasuryIn},
		},
		{
			name:  "unknown rule",
			input: ProposalInput{Title: "x", SanctionType: SanctionRuleChange, RuleToChange: "quorum", NewValue: "1"},
		},
		{
			name:  "rule value out of range",
			input: ProposalInput{Title: "x", SanctionType: SanctionRuleChange, RuleToChange: ParamPassCriteria, NewValue: "101"},
		},
		{
			name:  "rule value not a number",
			input: ProposalInput{Title: "x", SanctionType: SanctionRuleChange, RuleToChange: ParamVotingDuration, NewValue: "soon"},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := h.state.CreateProposal(context.Background(), testAlice, testDef.input)
			require.ErrorIs(t, err, ErrInvalidFields)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	proposals, err := h.state.GetAllProposals()
	require.NoError(t, err)
	assert.Empty(t, proposals)
	assert.Equal(t, int64(ScoreOnJoin), h.score(t, testAlice))
}

func TestRuleChangeRoundTrip(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)

	ruleId := h.propose(t, testAlice, ProposalInput{
		Title:        "raise the bar",
		SanctionType: SanctionRuleChange,
		RuleToChange: ParamPassCriteria,
		NewValue:     "70",
	})
	before := h.propose(t, testAlice, generalProposal("created under 50%"))

	h.vote(t, ruleId, ChoiceFor, testAlice, testBob)
	result, err := h.state.FinalizeProposal(ctx, testBob, ruleId)
	require.NoError(t, err)
	require.True(t, result.Executed)
	params, err := h.state.GetRuleParams()
	require.NoError(t, err)
	assert.Equal(t, uint32(70), params.PassCriteria)

	ruleProposal, err := h.state.GetProposal(ruleId)
	require.NoError(t, err)
	assert.Equal(t, "50", ruleProposal.BeforeValue)
	assert.Equal(t, "70", ruleProposal.AfterValue)

	after := h.propose(t, testAlice, generalProposal("created under 70%"))
	afterProposal, err := h.state.GetProposal(after)
	require.NoError(t, err)
	assert.Equal(t, uint32(70), afterProposal.Snapshot.PassCriteria)

	// 1 of 2 is 50%: enough under the snapshot taken at creation only
	for _, id := range []uint64{before, after} {
		h.vote(t, id, ChoiceFor, testAlice)
		h.vote(t, id, ChoiceAgainst, testBob)
	}
	result, err = h.state.FinalizeProposal(ctx, testAlice, before)
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, result.Status)
	result, err = h.state.FinalizeProposal(ctx, testAlice, after)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)

	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	var ruleEvents []Event
	for _, evt := range events {
		if evt.Type == event.RuleChangedEventType && evt.ProposalID == ruleId {
			ruleEvents = append(ruleEvents, evt)
		}
	}
	require.Len(t, ruleEvents, 1)
	assert.Equal(t, ParamPassCriteria, ruleEvents[0].Rule)
	assert.Equal(t, "50", ruleEvents[0].OldValue)
	assert.Equal(t, "70", ruleEvents[0].NewValue)
	h.verifyReplay(t)
}

func TestRaisedScoreThresholdExpelsMembers(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice, testBob)
	id := h.propose(t, testAlice, ProposalInput{
		Title:        "stricter",
		SanctionType: SanctionRuleChange,
		RuleToChange: ParamScoreToExpel,
		NewValue:     "55",
	})
	h.vote(t, id, ChoiceFor, testAlice, testBob)
	result, err := h.state.FinalizeProposal(context.Background(), testBob, id)
	require.NoError(t, err)
	assert.True(t, result.Executed)

	// The proposer's execution reward lands before the new threshold applies
	assert.Equal(t, int64(58), h.score(t, testAlice))
	isMember, err := h.state.IsMember(testAlice)
	require.NoError(t, err)
	assert.True(t, isMember)
	isMember, err = h.state.IsMember(testBob)
	require.NoError(t, err)
	assert.False(t, isMember)
	bob, err := h.state.GetMember(testBob)
	require.NoError(t, err)
	assert.Equal(t, int64(51), bob.GlassScore)
	assert.NotNil(t, bob.ExpelledAt)
	h.verifyReplay(t)
}

func TestLoweredPenaltyCountExpelsMembers(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.06", testAlice, testBob)
	absent := h.propose(t, testAlice, generalProposal("absent"))
	h.vote(t, absent, ChoiceFor, testAlice)
	h.clock.Advance(testVotingDuration + time.Second)
	_, err := h.state.FinalizeProposal(ctx, testAlice, absent)
	require.NoError(t, err)

	id := h.propose(t, testAlice, ProposalInput{
		Title:        "one strike",
		SanctionType: SanctionRuleChange,
		RuleToChange: ParamCountToExpel,
		NewValue:     "1",
	})
	h.vote(t, id, ChoiceFor, testAlice, testBob)
	result, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	assert.True(t, result.Executed)

	isMember, err := h.state.IsMember(testBob)
	require.NoError(t, err)
	assert.False(t, isMember)
	isMember, err = h.state.IsMember(testAlice)
	require.NoError(t, err)
	assert.True(t, isMember)
	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, event.MemberExpelledEventType, last.Type)
	assert.Equal(t, ExpelReasonPenalties, last.Reason)
	h.verifyReplay(t)
}

func TestRuleChangeWeiValueNormalized(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice)
	id := h.propose(t, testAlice, ProposalInput{
		Title:        "cheaper entry",
		SanctionType: SanctionRuleChange,
		RuleToChange: ParamEntryFee,
		NewValue:     "0.02 ether",
	})
	p, err := h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, "20000000000000000", p.AfterValue)
	h.vote(t, id, ChoiceFor, testAlice)
	_, err = h.state.FinalizeProposal(context.Background(), testAlice, id)
	require.NoError(t, err)
	params, err := h.state.GetRuleParams()
	require.NoError(t, err)
	assert.Equal(t, ether("0.02"), params.EntryFee)
	h.join(t, "0.02", testBob)
	h.verifyReplay(t)
}

func TestDeferredExecutionRetry(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)
	id := h.propose(t, testAlice, ProposalInput{
		Title:        "too much",
		SanctionType: SanctionTreasuryOut,
		Amount:       ether("1"),
		Recipient:    testCarol,
	})
	h.vote(t, id, ChoiceFor, testAlice, testBob)

	result, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.False(t, result.Executed)
	assert.Equal(t, StatusPassed, result.Status)
	require.ErrorIs(t, result.ExecutionError, ErrInsufficientTreasury)

	p, err := h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, p.Status)
	assert.Equal(t, uint32(1), p.ExecutionAttempts)
	assert.NotEmpty(t, p.LastExecutionError)
	assert.Equal(t, int64(54), h.score(t, testAlice))

	err = h.state.ExecuteProposal(ctx, testBob, id)
	require.ErrorIs(t, err, ErrInsufficientTreasury)
	p, err = h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), p.ExecutionAttempts)

	require.NoError(t, h.state.Deposit(ctx, testCarol, ether("1")))
	require.NoError(t, h.state.ExecuteProposal(ctx, testBob, id))
	p, err = h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, p.Status)
	assert.Empty(t, p.LastExecutionError)
	assert.Equal(t, int64(58), h.score(t, testAlice))

	credit, err := h.state.GetCredit(testCarol)
	require.NoError(t, err)
	assert.Equal(t, ether("1"), credit)
	balance, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	assert.Equal(t, ether("0.1"), balance)

	err = h.state.ExecuteProposal(ctx, testBob, id)
	require.ErrorIs(t, err, ErrAlreadyExecuted)
	credit, err = h.state.GetCredit(testCarol)
	require.NoError(t, err)
	assert.Equal(t, ether("1"), credit)
	h.verifyReplay(t)
}

func TestExecuteRejectedProposal(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice)
	id := h.propose(t, testAlice, generalProposal("no"))
	require.ErrorIs(t, h.state.ExecuteProposal(ctx, testAlice, id), ErrNotPassed)
	h.vote(t, id, ChoiceAgainst, testAlice)
	result, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	require.ErrorIs(t, h.state.ExecuteProposal(ctx, testAlice, id), ErrNotPassed)
}

func TestConfirmExecution(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)
	id := h.propose(t, testAlice, generalProposal("confirm me"))
	require.ErrorIs(t, h.state.ConfirmExecution(ctx, testBob, id), ErrNotExecuted)
	h.vote(t, id, ChoiceFor, testAlice, testBob)
	_, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	require.NoError(t, h.state.ConfirmExecution(ctx, testBob, id))
	assert.Equal(t, int64(52), h.score(t, testBob))
	require.ErrorIs(t, h.state.ConfirmExecution(ctx, testBob, id), ErrDoubleConfirm)
	require.ErrorIs(t, h.state.ConfirmExecution(ctx, testCarol, id), ErrNotMember)
	assert.Equal(t, int64(52), h.score(t, testBob))
	h.verifyReplay(t)
}

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusPassed, StatusRejected, StatusExecuted}
	allowed := map[Status][]Status{
		StatusPending: {StatusPassed, StatusRejected},
		StatusPassed:  {StatusExecuted},
	}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, tmpStatus := range allowed[from] {
				if tmpStatus == to {
					want = true
				}
			}
			assert.Equal(t, want, from.canTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusHistoryFollowsGraph(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)
	passed := h.propose(t, testAlice, generalProposal("yes"))
	rejected := h.propose(t, testAlice, generalProposal("no"))
	h.vote(t, passed, ChoiceFor, testAlice, testBob)
	h.vote(t, rejected, ChoiceAgainst, testAlice, testBob)
	for _, id := range []uint64{passed, rejected} {
		_, err := h.state.FinalizeProposal(ctx, testAlice, id)
		require.NoError(t, err)
	}
	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	current := map[uint64]Status{}
	for _, evt := range events {
		switch evt.Type {
		case event.ProposalCreatedEventType:
			current[evt.ProposalID] = StatusPending
		case event.ProposalFinalizedEventType, event.ProposalExecutedEventType:
			require.NotNil(t, evt.Status)
			assert.True(
				t,
				current[evt.ProposalID].canTransition(*evt.Status),
				"proposal %d: %s -> %s",
				evt.ProposalID,
				current[evt.ProposalID],
				*evt.Status,
			)
			current[evt.ProposalID] = *evt.Status
		}
	}
	assert.Equal(t, StatusExecuted, current[passed])
	assert.Equal(t, StatusRejected, current[rejected])
}

func TestProposalPasses(t *testing.T) {
	testDefs := []struct {
		votesFor     uint32
		totalMembers uint32
		passCriteria uint32
		passes       bool
	}{
		{votesFor: 1, totalMembers: 2, passCriteria: 50, passes: true},
		{votesFor: 1, totalMembers: 2, passCriteria: 51, passes: false},
		{votesFor: 7, totalMembers: 10, passCriteria: 70, passes: true},
		{votesFor: 6, totalMembers: 10, passCriteria: 70, passes: false},
		{votesFor: 2, totalMembers: 3, passCriteria: 67, passes: false},
		{votesFor: 2, totalMembers: 3, passCriteria: 66, passes: true},
		{votesFor: 3, totalMembers: 3, passCriteria: 100, passes: true},
		{votesFor: 0, totalMembers: 0, passCriteria: 1, passes: false},
		{votesFor: 0, totalMembers: 5, passCriteria: 1, passes: false},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.passes,
			proposalPasses(testDef.votesFor, testDef.totalMembers, testDef.passCriteria),
			"%d/%d at %d%%",
			testDef.votesFor,
			testDef.totalMembers,
			testDef.passCriteria,
		)
	}
}

func TestFinalizeWithNoMembersRejects(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice)
	id := h.propose(t, testAlice, generalProposal("alone"))
	require.NoError(t, h.state.AdminExpel(ctx, testAdmin, testAlice))
	// With nobody left to vote the proposal can be finalized early
	result, err := h.state.FinalizeProposal(ctx, testAdmin, id)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	p, err := h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Zero(t, p.TotalMembersAtFinalization)
	h.verifyReplay(t)
}

func TestVaultLedgerReconciles(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.06", testAlice, testBob, testCarol)
	require.NoError(t, h.state.Deposit(ctx, testDave, ether("0.5")))
	require.ErrorIs(t, h.state.Deposit(ctx, testDave, ether("0")), ErrInvalidFields)
	id := h.propose(t, testAlice, ProposalInput{
		Title:        "grant",
		SanctionType: SanctionTreasuryOut,
		Amount:       ether("0.2"),
		Recipient:    testDave,
	})
	h.vote(t, id, ChoiceFor, testAlice, testBob)
	h.clock.Advance(testVotingDuration + time.Second)
	result, err := h.state.FinalizeProposal(ctx, testAlice, id)
	require.NoError(t, err)
	require.True(t, result.Executed)

	ledger, err := h.state.GetVaultLedger()
	require.NoError(t, err)
	balance, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	sum := ether("0")
	var lastSeq uint64
	for _, entry := range ledger {
		assert.Greater(t, entry.EventSeq, lastSeq)
		lastSeq = entry.EventSeq
		switch entry.Direction {
		case "in":
			sum, err = sum.Add(entry.Amount)
			require.NoError(t, err)
		case "out":
			var ok bool
			sum, ok = sum.Sub(entry.Amount)
			require.True(t, ok, "vault went negative")
		default:
			t.Fatalf("unknown direction %q", entry.Direction)
		}
		assert.Equal(t, sum, entry.BalanceAfter)
	}
	assert.Equal(t, balance, sum)
	// 3 entry fees + deposit + 1 penalty fee - payout
	assert.Equal(t, ether("0.451"), balance)
	h.verifyReplay(t)
}

func TestEventLogOrder(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice, testBob)
	id := h.propose(t, testAlice, generalProposal("ordered"))
	h.vote(t, id, ChoiceFor, testAlice, testBob)
	_, err := h.state.FinalizeProposal(context.Background(), testAlice, id)
	require.NoError(t, err)
	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	for i, evt := range events {
		assert.Equal(t, uint64(i+1), evt.Seq) //nolint:gosec
	}
	page, err := h.state.GetEvents(3, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(4), page[0].Seq)
	var tail []event.EventType
	for _, evt := range events[len(events)-5:] {
		tail = append(tail, evt.Type)
	}
	assert.Equal(
		t,
		[]event.EventType{
			event.VoteCastEventType,
			event.ScoreChangedEventType,
			event.ProposalFinalizedEventType,
			event.ProposalExecutedEventType,
			event.ScoreChangedEventType,
		},
		tail,
	)
}
