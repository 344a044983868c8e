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
	"fmt"
	"slices"
	"strings"

	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is DAO state rebuilt from the event log
type Snapshot struct {
	LastSeq         uint64
	Params          RuleParams
	VaultBalance    types.Wei
	Members         map[common.Address]*Member
	Proposals       map[uint64]*Proposal
	Credits         map[common.Address]types.Wei
	Counters        Counters
	CorruptionIndex uint64
}

// ReplayMismatchError lists the differences between live state and the
// state rebuilt from the event log
type ReplayMismatchError struct {
	Diffs []string
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf(
		"replayed state differs from live state: %s",
		strings.Join(e.Diffs, "; "),
	)
}

// Replay rebuilds DAO state from a complete event log, starting at the
// first event
func Replay(events []Event) (*Snapshot, error) {
	snap := &Snapshot{
		Members:   make(map[common.Address]*Member),
		Proposals: make(map[uint64]*Proposal),
		Credits:   make(map[common.Address]types.Wei),
	}
	for _, evt := range events {
		if evt.Seq != snap.LastSeq+1 {
			return nil, fmt.Errorf(
				"event log gap: expected event %d, got %d",
				snap.LastSeq+1,
				evt.Seq,
			)
		}
		if err := snap.apply(evt); err != nil {
			return nil, fmt.Errorf("replay event %d (%s): %w", evt.Seq, evt.Type, err)
		}
		snap.LastSeq = evt.Seq
	}
	return snap, nil
}

func (snap *Snapshot) member(evt Event) (*Member, error) {
	if evt.Address == nil {
		return nil, fmt.Errorf("missing address")
	}
	m, ok := snap.Members[*evt.Address]
	if !ok {
		m = &Member{Address: *evt.Address}
		snap.Members[*evt.Address] = m
	}
	return m, nil
}

func (snap *Snapshot) proposal(evt Event) (*Proposal, error) {
	p, ok := snap.Proposals[evt.ProposalID]
	if !ok {
		return nil, fmt.Errorf("unknown proposal %d", evt.ProposalID)
	}
	return p, nil
}

func required[T any](v *T, name string) (T, error) {
	if v == nil {
		var zero T
		return zero, fmt.Errorf("missing %s", name)
	}
	return *v, nil
}

//nolint:gocyclo
func (snap *Snapshot) apply(evt Event) error {
	var err error
	switch evt.Type {
	case event.RuleChangedEventType:
		snap.Params, err = snap.Params.With(evt.Rule, evt.NewValue)
		return err
	case event.RoleChangedEventType:
		m, err := snap.member(evt)
		if err != nil {
			return err
		}
		m.Roles, err = required(evt.Roles, "roles")
		return err
	case event.MemberJoinedEventType:
		m, err := snap.member(evt)
		if err != nil {
			return err
		}
		m.Active = true
		m.JoinedAt = evt.Time()
		m.ExpelledAt = nil
		if m.GlassScore, err = required(evt.Score, "score"); err != nil {
			return err
		}
		if m.PenaltyCount, err = required(evt.PenaltyCount, "penalty count"); err != nil {
			return err
		}
		if m.Bond, err = required(evt.Bond, "bond"); err != nil {
			return err
		}
		m.Roles, err = required(evt.Roles, "roles")
		return err
	case event.BondDepositedEventType:
		m, err := snap.member(evt)
		if err != nil {
			return err
		}
		m.Bond, err = required(evt.Bond, "bond")
		return err
	case event.ScoreChangedEventType:
		m, err := snap.member(evt)
		if err != nil {
			return err
		}
		m.GlassScore, err = required(evt.Score, "score")
		return err
	case event.PenaltyAppliedEventType:
		m, err := snap.member(evt)
		if err != nil {
			return err
		}
		if m.GlassScore, err = required(evt.Score, "score"); err != nil {
			return err
		}
		if m.PenaltyCount, err = required(evt.PenaltyCount, "penalty count"); err != nil {
			return err
		}
		if m.Bond, err = required(evt.Bond, "bond"); err != nil {
			return err
		}
		snap.VaultBalance, err = required(evt.VaultBalance, "vault balance")
		return err
	case event.MemberExpelledEventType:
		m, err := snap.member(evt)
		if err != nil {
			return err
		}
		m.Active = false
		m.Roles = 0
		m.Bond = types.Wei{}
		m.ExpelledAt = ptr(evt.Time())
		credit, err := required(evt.Credit, "credit")
		if err != nil {
			return err
		}
		snap.Credits[m.Address] = credit
		return nil
	case event.ProposalCreatedEventType:
		if evt.Proposal == nil {
			return fmt.Errorf("missing proposal")
		}
		p := *evt.Proposal
		p.Voters = []common.Address{}
		snap.Proposals[p.ID] = &p
		return nil
	case event.VoteCastEventType:
		p, err := snap.proposal(evt)
		if err != nil {
			return err
		}
		tally, err := required(evt.Tally, "tally")
		if err != nil {
			return err
		}
		if evt.Address == nil {
			return fmt.Errorf("missing address")
		}
		p.VotesFor = tally.For
		p.VotesAgainst = tally.Against
		p.VotesAbstain = tally.Abstain
		p.Voters = append(p.Voters, *evt.Address)
		return nil
	case event.ProposalFinalizedEventType:
		p, err := snap.proposal(evt)
		if err != nil {
			return err
		}
		if p.Status, err = required(evt.Status, "status"); err != nil {
			return err
		}
		tally, err := required(evt.Tally, "tally")
		if err != nil {
			return err
		}
		p.TotalMembersAtFinalization = tally.TotalMembers
		p.FinalizedAt = ptr(evt.Time())
		return nil
	case event.ProposalExecutedEventType:
		p, err := snap.proposal(evt)
		if err != nil {
			return err
		}
		if p.Status != StatusPassed {
			return fmt.Errorf("proposal %d executed while %s", p.ID, p.Status)
		}
		p.Status = StatusExecuted
		p.ExecutedAt = ptr(evt.Time())
		p.ExecutionAttempts++
		p.LastExecutionError = ""
		return nil
	case event.ExecutionDeferredEventType:
		p, err := snap.proposal(evt)
		if err != nil {
			return err
		}
		p.ExecutionAttempts++
		p.LastExecutionError = evt.Reason
		return nil
	case event.ExecutionConfirmedEventType:
		_, err := snap.proposal(evt)
		return err
	case event.VaultDepositEventType:
		snap.VaultBalance, err = required(evt.VaultBalance, "vault balance")
		return err
	case event.VaultTransferEventType:
		if snap.VaultBalance, err = required(evt.VaultBalance, "vault balance"); err != nil {
			return err
		}
		recipient, err := required(evt.Address, "recipient")
		if err != nil {
			return err
		}
		snap.Credits[recipient], err = required(evt.Credit, "credit")
		return err
	case event.CreditWithdrawnEventType:
		addr, err := required(evt.Address, "address")
		if err != nil {
			return err
		}
		snap.Credits[addr], err = required(evt.Credit, "credit")
		return err
	case event.MetricsUpdatedEventType:
		if snap.Counters, err = required(evt.Counters, "counters"); err != nil {
			return err
		}
		snap.CorruptionIndex, err = required(evt.Index, "index")
		return err
	default:
		return fmt.Errorf("unknown event type")
	}
}

// VerifyReplay replays the full event log and compares the result with
// the live state. It returns a *ReplayMismatchError listing any
// differences.
func (s *State) VerifyReplay() (*Snapshot, error) {
	s.RLock()
	defer s.RUnlock()
	records, err := s.db.GetEventRecords(0, 0, nil)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(records))
	for _, record := range records {
		evt, err := decodeEvent(record)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	snap, err := Replay(events)
	if err != nil {
		return nil, err
	}
	diffs, err := s.diffSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if len(diffs) > 0 {
		return snap, &ReplayMismatchError{Diffs: diffs}
	}
	return snap, nil
}

//nolint:gocyclo
func (s *State) diffSnapshot(snap *Snapshot) ([]string, error) {
	var diffs []string
	diff := func(format string, args ...any) {
		diffs = append(diffs, fmt.Sprintf(format, args...))
	}
	daoState, err := s.db.GetDaoState(nil)
	if err != nil {
		return nil, err
	}
	if daoState == nil {
		return nil, ErrNotInitialized
	}
	if daoState.EventSeq != snap.LastSeq {
		diff("event seq %d != %d", daoState.EventSeq, snap.LastSeq)
	}
	if live := ruleParamsFromModel(daoState.Params); live != snap.Params {
		diff("rule params %+v != %+v", live, snap.Params)
	}
	if daoState.VaultBalance.Cmp(snap.VaultBalance) != 0 {
		diff(
			"vault balance %s != %s",
			daoState.VaultBalance.String(),
			snap.VaultBalance.String(),
		)
	}
	members, err := s.db.GetMembers(true, nil)
	if err != nil {
		return nil, err
	}
	if len(members) != len(snap.Members) {
		diff("member count %d != %d", len(members), len(snap.Members))
	}
	for i := range members {
		live := memberFromModel(&members[i])
		replayed, ok := snap.Members[live.Address]
		if !ok {
			diff("member %s missing from replay", live.Address.Hex())
			continue
		}
		if live.Active != replayed.Active ||
			live.Roles != replayed.Roles ||
			live.GlassScore != replayed.GlassScore ||
			live.PenaltyCount != replayed.PenaltyCount ||
			live.Bond.Cmp(replayed.Bond) != 0 {
			diff("member %s %+v != %+v", live.Address.Hex(), live, *replayed)
		}
	}
	proposals, err := s.db.GetProposals(nil)
	if err != nil {
		return nil, err
	}
	if len(proposals) != len(snap.Proposals) {
		diff("proposal count %d != %d", len(proposals), len(snap.Proposals))
	}
	for i := range proposals {
		votes, err := s.db.GetVotes(proposals[i].ID, nil)
		if err != nil {
			return nil, err
		}
		live := proposalFromModel(&proposals[i], votes)
		replayed, ok := snap.Proposals[live.ID]
		if !ok {
			diff("proposal %d missing from replay", live.ID)
			continue
		}
		if live.Status != replayed.Status ||
			live.VotesFor != replayed.VotesFor ||
			live.VotesAgainst != replayed.VotesAgainst ||
			live.VotesAbstain != replayed.VotesAbstain ||
			live.TotalMembersAtFinalization != replayed.TotalMembersAtFinalization ||
			live.Snapshot != replayed.Snapshot ||
			!slices.Equal(live.Voters, replayed.Voters) {
			diff("proposal %d differs", live.ID)
		}
	}
	credits, err := s.db.GetCredits(nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[common.Address]bool, len(credits))
	for _, credit := range credits {
		addr := common.HexToAddress(credit.Address)
		seen[addr] = true
		if credit.Amount.Cmp(snap.Credits[addr]) != 0 {
			diff(
				"credit %s %s != %s",
				addr.Hex(),
				credit.Amount.String(),
				snap.Credits[addr].String(),
			)
		}
	}
	for addr, amount := range snap.Credits {
		if !seen[addr] && !amount.IsZero() {
			diff("credit %s missing from live state", addr.Hex())
		}
	}
	index, _, err := s.corruptionIndexLocked()
	if err != nil {
		return nil, err
	}
	if index != snap.CorruptionIndex {
		diff("corruption index %d != %d", index, snap.CorruptionIndex)
	}
	return diffs, nil
}
