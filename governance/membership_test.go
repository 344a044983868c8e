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
	"math"
	"testing"

	"github.com/blinklabs-io/glassdao/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDeductionExpels(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.06", testAlice)

	// Landing exactly on the threshold keeps the member
	require.NoError(t, h.state.AdminSubGlassScore(ctx, testAdmin, testAlice, 30))
	isMember, err := h.state.IsMember(testAlice)
	require.NoError(t, err)
	assert.True(t, isMember)
	assert.Equal(t, int64(20), h.score(t, testAlice))

	require.NoError(t, h.state.AdminSubGlassScore(ctx, testAdmin, testAlice, 1))
	isMember, err = h.state.IsMember(testAlice)
	require.NoError(t, err)
	assert.False(t, isMember)
	_, err = h.state.GetMemberScore(testAlice)
	require.ErrorIs(t, err, ErrNotMember)

	member, err := h.state.GetMember(testAlice)
	require.NoError(t, err)
	assert.False(t, member.Active)
	assert.Zero(t, member.Roles)
	assert.Equal(t, int64(19), member.GlassScore)
	credit, err := h.state.GetCredit(testAlice)
	require.NoError(t, err)
	assert.Equal(t, ether("0.01"), credit)

	_, err = h.state.CreateProposal(ctx, testAlice, generalProposal("still here?"))
	require.ErrorIs(t, err, ErrNotMember)
	require.ErrorIs(
		t,
		h.state.AdminSubGlassScore(ctx, testAdmin, testAlice, 1),
		ErrNotMember,
	)

	events, err := h.state.GetEvents(0, 0)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, event.MemberExpelledEventType, last.Type)
	assert.Equal(t, ExpelReasonScore, last.Reason)
	h.verifyReplay(t)
}

func TestExpelledMemberCanRejoin(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice)
	require.NoError(t, h.state.AdminExpel(ctx, testAdmin, testAlice))
	require.ErrorIs(t, h.state.AdminExpel(ctx, testAdmin, testAlice), ErrNotMember)
	h.join(t, "0.05", testAlice)
	member, err := h.state.GetMember(testAlice)
	require.NoError(t, err)
	assert.True(t, member.Active)
	assert.Equal(t, int64(ScoreOnJoin), member.GlassScore)
	assert.Zero(t, member.PenaltyCount)
	assert.Nil(t, member.ExpelledAt)
	h.verifyReplay(t)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)

	err := h.state.AdminSubGlassScore(ctx, testAlice, testBob, 10)
	require.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, KindAuthorization, KindOf(err))
	require.ErrorIs(t, h.state.AdminAddGlassScore(ctx, testCarol, testBob, 10), ErrNotAdmin)
	require.ErrorIs(t, h.state.AdminExpel(ctx, testAlice, testBob), ErrNotAdmin)
	require.ErrorIs(t, h.state.GrantRole(ctx, testAlice, testAlice, RoleAdmin), ErrNotAdmin)
	_, err = h.state.UpdateMetrics(ctx, testAlice, Counters{})
	require.ErrorIs(t, err, ErrNotAdmin)

	require.ErrorIs(t, h.state.AdminSubGlassScore(ctx, testAdmin, testBob, 0), ErrInvalidFields)
	require.ErrorIs(t, h.state.AdminSubGlassScore(ctx, testAdmin, testCarol, 5), ErrNotMember)
	assert.Equal(t, int64(ScoreOnJoin), h.score(t, testBob))

	require.NoError(t, h.state.AdminAddGlassScore(ctx, testAdmin, testBob, 10))
	assert.Equal(t, int64(60), h.score(t, testBob))
}

func TestGrantAndRevokeRole(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice)

	require.ErrorIs(
		t,
		h.state.GrantRole(ctx, testAdmin, testAlice, RoleMember),
		ErrInvalidFields,
	)
	require.NoError(t, h.state.GrantRole(ctx, testAdmin, testAlice, RoleAdmin))
	member, err := h.state.GetMember(testAlice)
	require.NoError(t, err)
	assert.Equal(t, RoleMember|RoleAdmin, member.Roles)

	// The new admin can act, including on the original admin
	require.NoError(t, h.state.GrantRole(ctx, testAlice, testBob, RoleEmergency))
	require.NoError(t, h.state.RevokeRole(ctx, testAlice, testAdmin, RoleAdmin))
	require.ErrorIs(t, h.state.AdminExpel(ctx, testAdmin, testAlice), ErrNotAdmin)

	// Granting a held role changes nothing
	before, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	require.NoError(t, h.state.GrantRole(ctx, testAlice, testAlice, RoleAdmin))
	after, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, before.EventCount, after.EventCount)

	bob, err := h.state.GetMember(testBob)
	require.NoError(t, err)
	assert.False(t, bob.Active)
	assert.Equal(t, RoleEmergency, bob.Roles)
	isMember, err := h.state.IsMember(testBob)
	require.NoError(t, err)
	assert.False(t, isMember)
	h.verifyReplay(t)
}

func TestGetMembers(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice, testBob)
	require.NoError(t, h.state.AdminExpel(context.Background(), testAdmin, testBob))
	active, err := h.state.GetMembers(false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, testAlice, active[0].Address)
	all, err := h.state.GetMembers(true)
	require.NoError(t, err)
	// Includes the genesis admin
	assert.Len(t, all, 3)
	_, err = h.state.GetMember(testCarol)
	require.ErrorIs(t, err, ErrMemberNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRoleText(t *testing.T) {
	roles := RoleMember | RoleEmergency
	text, err := roles.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "member,emergency", string(text))
	var parsed Role
	require.NoError(t, parsed.UnmarshalText([]byte("Admin,member")))
	assert.Equal(t, RoleMember|RoleAdmin, parsed)
	require.Error(t, parsed.UnmarshalText([]byte("owner")))
	require.NoError(t, parsed.UnmarshalText(nil))
	assert.Zero(t, parsed)
}

func TestChoiceText(t *testing.T) {
	for _, choice := range []Choice{ChoiceFor, ChoiceAgainst, ChoiceAbstain} {
		text, err := choice.MarshalText()
		require.NoError(t, err)
		parsed, err := ParseChoice(string(text))
		require.NoError(t, err)
		assert.Equal(t, choice, parsed)
	}
	_, err := ParseChoice("maybe")
	require.ErrorIs(t, err, ErrInvalidFields)
	assert.False(t, Choice(0).Valid())
}

func TestAdminScoreOverflowRejected(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)

	err := h.state.AdminAddGlassScore(ctx, testAdmin, testAlice, math.MaxInt64)
	require.ErrorIs(t, err, ErrInvalidFields)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, int64(ScoreOnJoin), h.score(t, testAlice))

	// A large deduction that fits is applied and expels
	require.NoError(t, h.state.AdminSubGlassScore(ctx, testAdmin, testBob, math.MaxInt64))
	isMember, err := h.state.IsMember(testBob)
	require.NoError(t, err)
	assert.False(t, isMember)
	bob, err := h.state.GetMember(testBob)
	require.NoError(t, err)
	assert.Equal(t, int64(ScoreOnJoin)-math.MaxInt64, bob.GlassScore)
	h.verifyReplay(t)
}
