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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/glassdao/database"
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAdmin = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	testAlice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testBob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testCarol = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	testDave  = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

type testClock struct {
	sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.now = c.now.Add(d)
}

type testHarness struct {
	state *State
	db    *database.Database
	bus   *event.EventBus
	clock *testClock
}

func newTestHarness(t *testing.T, dataDir string, genesis Genesis) *testHarness {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(func() {
		bus.Stop()
		_ = db.Close()
	})
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	state, err := NewState(StateConfig{
		Database:     db,
		EventBus:     bus,
		PromRegistry: prometheus.NewRegistry(),
		Genesis:      genesis,
		Now:          clock.Now,
	})
	require.NoError(t, err)
	return &testHarness{
		state: state,
		db:    db,
		bus:   bus,
		clock: clock,
	}
}

func testGenesis() Genesis {
	genesis := DefaultGenesis()
	genesis.Admins = []common.Address{testAdmin}
	return genesis
}

func ether(s string) types.Wei {
	return types.MustParseWei(s + " ether")
}

func (h *testHarness) join(t *testing.T, payment string, addrs ...common.Address) {
	t.Helper()
	for _, addr := range addrs {
		require.NoError(t, h.state.JoinDAO(context.Background(), addr, ether(payment)))
	}
}

func (h *testHarness) propose(t *testing.T, proposer common.Address, input ProposalInput) uint64 {
	t.Helper()
	id, err := h.state.CreateProposal(context.Background(), proposer, input)
	require.NoError(t, err)
	return id
}

func (h *testHarness) vote(t *testing.T, id uint64, choice Choice, voters ...common.Address) {
	t.Helper()
	for _, voter := range voters {
		require.NoError(t, h.state.Vote(context.Background(), voter, id, choice))
	}
}

func (h *testHarness) score(t *testing.T, addr common.Address) int64 {
	t.Helper()
	score, err := h.state.GetMemberScore(addr)
	require.NoError(t, err)
	return score
}

func (h *testHarness) verifyReplay(t *testing.T) {
	t.Helper()
	_, err := h.state.VerifyReplay()
	require.NoError(t, err)
}

func generalProposal(title string) ProposalInput {
	return ProposalInput{
		Title:        title,
		SanctionType: SanctionGeneral,
	}
}

func TestGenesis(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	details, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, "glassdao", details.Name)
	assert.Equal(t, DefaultRuleParams(), details.Params)
	assert.Zero(t, details.MemberCount)
	assert.True(t, details.VaultBalance.IsZero())
	// One event per rule parameter plus the admin grant
	assert.Equal(t, uint64(len(RuleParamNames())+1), details.EventCount)
	admin, err := h.state.GetMember(testAdmin)
	require.NoError(t, err)
	assert.False(t, admin.Active)
	assert.True(t, admin.Roles.Has(RoleAdmin))
	isMember, err := h.state.IsMember(testAdmin)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestGenesisInvalidParams(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	genesis := testGenesis()
	genesis.Params.PassCriteria = 0
	_, err = NewState(StateConfig{Database: db, Genesis: genesis})
	require.Error(t, err)
}

func TestReopenKeepsState(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	state, err := NewState(StateConfig{Database: db, Genesis: testGenesis()})
	require.NoError(t, err)
	require.NoError(t, state.JoinDAO(context.Background(), testAlice, ether("0.05")))
	before, err := state.GetDaoDetails()
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// A different genesis is ignored for an existing DAO
	genesis := testGenesis()
	genesis.Name = "other"
	genesis.Params.PassCriteria = 90
	h := newTestHarness(t, dataDir, genesis)
	after, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.EventCount, after.EventCount)
	assert.Equal(t, uint32(50), after.Params.PassCriteria)
	assert.Equal(t, uint64(1), after.MemberCount)
	h.verifyReplay(t)
}

func TestJoinDAO(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()

	err := h.state.JoinDAO(ctx, testAlice, ether("0.01"))
	require.ErrorIs(t, err, ErrInsufficientFee)
	assert.Equal(t, KindResource, KindOf(err))
	balance, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	h.join(t, "0.08", testAlice)
	member, err := h.state.GetMember(testAlice)
	require.NoError(t, err)
	assert.True(t, member.Active)
	assert.Equal(t, int64(ScoreOnJoin), member.GlassScore)
	assert.Equal(t, ether("0.03"), member.Bond)
	assert.True(t, member.Roles.Has(RoleMember))

	err = h.state.JoinDAO(ctx, testAlice, ether("0.05"))
	require.ErrorIs(t, err, ErrAlreadyMember)
	assert.Equal(t, KindStateConflict, KindOf(err))

	balance, err = h.state.GetVaultBalance()
	require.NoError(t, err)
	assert.Equal(t, ether("0.05"), balance)

	require.NoError(t, h.state.TopUpBond(ctx, testAlice, ether("0.02")))
	member, err = h.state.GetMember(testAlice)
	require.NoError(t, err)
	assert.Equal(t, ether("0.05"), member.Bond)
	require.ErrorIs(t, h.state.TopUpBond(ctx, testBob, ether("0.02")), ErrNotMember)
	h.verifyReplay(t)
}

func TestJoinPublishesEvents(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	_, joinedCh := h.bus.Subscribe(event.MemberJoinedEventType)
	_, depositCh := h.bus.Subscribe(event.VaultDepositEventType)
	h.join(t, "0.05", testAlice)
	select {
	case evt := <-joinedCh:
		govEvt, ok := evt.Data.(Event)
		require.True(t, ok)
		require.NotNil(t, govEvt.Address)
		assert.Equal(t, testAlice, *govEvt.Address)
		assert.Equal(t, int64(ScoreOnJoin), *govEvt.Score)
	case <-time.After(time.Second):
		t.Fatal("no MemberJoined event")
	}
	select {
	case evt := <-depositCh:
		govEvt := evt.Data.(Event)
		assert.Equal(t, VaultReasonEntryFee, govEvt.Reason)
		assert.Equal(t, ether("0.049"), *govEvt.VaultBalance)
	case <-time.After(time.Second):
		t.Fatal("no VaultDeposit event")
	}
}

func TestRejectedOperationWritesNothing(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	h.join(t, "0.05", testAlice)
	before, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	_, err = h.state.CreateProposal(context.Background(), testBob, generalProposal("x"))
	require.ErrorIs(t, err, ErrNotMember)
	err = h.state.Vote(context.Background(), testAlice, 7, ChoiceFor)
	require.ErrorIs(t, err, ErrProposalNotFound)
	after, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	assert.Equal(t, before.EventCount, after.EventCount)
	assert.Equal(t, before.ProposalCount, after.ProposalCount)
}

func TestCanceledContext(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.state.JoinDAO(ctx, testAlice, ether("0.05"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentVotes(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	voters := make([]common.Address, 12)
	for i := range voters {
		voters[i] = common.BytesToAddress([]byte{0xe0, byte(i + 1)})
	}
	var wg sync.WaitGroup
	for _, voter := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.state.JoinDAO(context.Background(), voter, ether("0.05")))
		}()
	}
	wg.Wait()
	id := h.propose(t, voters[0], generalProposal("concurrent"))
	errs := make(chan error, len(voters)*2)
	for _, voter := range voters {
		// Each voter races against itself as well as the others
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- h.state.Vote(context.Background(), voter, id, ChoiceFor)
			}()
		}
	}
	wg.Wait()
	close(errs)
	var ok, double int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDoubleVote):
			double++
		default:
			t.Fatalf("unexpected error: %s", err)
		}
	}
	assert.Equal(t, len(voters), ok)
	assert.Equal(t, len(voters), double)
	p, err := h.state.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(voters)), p.VotesFor) //nolint:gosec
	assert.Len(t, p.Voters, len(voters))
	balance, err := h.state.GetVaultBalance()
	require.NoError(t, err)
	assert.Equal(t, types.MustParseWei("0.588 ether"), balance)
	h.verifyReplay(t)
}
