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
	"math"
	"time"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// Glass score changes
const (
	ScoreOnJoin         int64 = 50
	ScoreCreateProposal int64 = 3
	ScoreVote           int64 = 1
	ScoreConfirm        int64 = 1
	ScoreExecuted       int64 = 4
)

// Expulsion reasons
const (
	ExpelReasonScore     = "score"
	ExpelReasonPenalties = "penalties"
	ExpelReasonAdmin     = "admin"
)

func memberFromModel(m *models.Member) Member {
	ret := Member{
		Address:      common.HexToAddress(m.Address),
		Roles:        Role(m.Roles),
		GlassScore:   m.GlassScore,
		PenaltyCount: m.PenaltyCount,
		Bond:         m.Bond,
		Active:       m.Active,
	}
	if m.JoinedAt > 0 {
		ret.JoinedAt = time.Unix(m.JoinedAt, 0).UTC()
	}
	if m.ExpelledAt != nil {
		ret.ExpelledAt = ptr(time.Unix(*m.ExpelledAt, 0).UTC())
	}
	return ret
}

// JoinDAO admits the caller as a member. The entry fee goes to the vault
// and anything paid above it is held as the member's bond, from which
// absent-penalty fees are taken. The bond is never less than one absent
// penalty fee; when the payment has no such surplus the entry fee is
// reduced to cover it.
func (s *State) JoinDAO(
	ctx context.Context,
	caller common.Address,
	payment types.Wei,
) error {
	return s.mutate(ctx, "JoinDAO", caller, func(tc *txnContext) error {
		m, err := tc.getOrNewMember(caller)
		if err != nil {
			return err
		}
		if m.Active {
			return ErrAlreadyMember.withMessage("%s", caller.Hex())
		}
		params := tc.params()
		bond, ok := payment.Sub(params.EntryFee)
		if !ok {
			return ErrInsufficientFee.withMessage(
				"paid %s wei, entry fee is %s wei",
				payment.String(),
				params.EntryFee.String(),
			)
		}
		// Every member holds at least one absent penalty fee as bond. A
		// payment without that much surplus funds it from the entry fee.
		fee := params.EntryFee
		if shortfall, ok := params.AbsentPenaltyFee.Sub(bond); ok {
			held := shortfall.Min(fee)
			fee, _ = fee.Sub(held)
			if bond, err = bond.Add(held); err != nil {
				return err
			}
		}
		m.Active = true
		m.Roles |= uint8(RoleMember)
		m.GlassScore = ScoreOnJoin
		m.PenaltyCount = 0
		m.Bond = bond
		m.JoinedAt = tc.now.Unix()
		m.ExpelledAt = nil
		if err := tc.db.SetMember(m, tc.txn); err != nil {
			return err
		}
		if err := tc.emit(Event{
			Type:         event.MemberJoinedEventType,
			Address:      ptr(caller),
			Score:        ptr(m.GlassScore),
			PenaltyCount: ptr(m.PenaltyCount),
			Bond:         ptr(m.Bond),
			Roles:        ptr(Role(m.Roles)),
		}); err != nil {
			return err
		}
		if fee.IsZero() {
			return nil
		}
		return tc.vaultIn(
			fee,
			caller,
			VaultReasonEntryFee,
			nil,
		)
	})
}

// TopUpBond adds to the caller's bond
func (s *State) TopUpBond(
	ctx context.Context,
	caller common.Address,
	amount types.Wei,
) error {
	return s.mutate(ctx, "TopUpBond", caller, func(tc *txnContext) error {
		if amount.IsZero() {
			return ErrInvalidFields.withMessage("amount must be positive")
		}
		m, err := tc.getActiveMember(caller)
		if err != nil {
			return err
		}
		if m.Bond, err = m.Bond.Add(amount); err != nil {
			return ErrInvalidFields.withMessage("%s", err)
		}
		if err := tc.db.SetMember(m, tc.txn); err != nil {
			return err
		}
		return tc.emit(Event{
			Type:    event.BondDepositedEventType,
			Address: ptr(caller),
			Amount:  ptr(amount),
			Bond:    ptr(m.Bond),
		})
	})
}

// AdminSubGlassScore lowers a member's glass score. The member is expelled
// at once if the new score is below the expulsion threshold.
func (s *State) AdminSubGlassScore(
	ctx context.Context,
	admin common.Address,
	addr common.Address,
	amount int64,
) error {
	return s.adminAdjustScore(ctx, "AdminSubGlassScore", admin, addr, -amount, amount)
}

// AdminAddGlassScore raises a member's glass score
func (s *State) AdminAddGlassScore(
	ctx context.Context,
	admin common.Address,
	addr common.Address,
	amount int64,
) error {
	return s.adminAdjustScore(ctx, "AdminAddGlassScore", admin, addr, amount, amount)
}

func (s *State) adminAdjustScore(
	ctx context.Context,
	op string,
	admin common.Address,
	addr common.Address,
	delta int64,
	amount int64,
) error {
	return s.mutate(ctx, op, admin, func(tc *txnContext) error {
		if err := tc.requireAdmin(admin); err != nil {
			return err
		}
		if amount <= 0 {
			return ErrInvalidFields.withMessage("amount must be positive")
		}
		m, err := tc.getActiveMember(addr)
		if err != nil {
			return err
		}
		return tc.changeScore(m, delta, "admin", 0, &admin)
	})
}

// AdminExpel removes a member from the member set
func (s *State) AdminExpel(
	ctx context.Context,
	admin common.Address,
	addr common.Address,
) error {
	return s.mutate(ctx, "AdminExpel", admin, func(tc *txnContext) error {
		if err := tc.requireAdmin(admin); err != nil {
			return err
		}
		m, err := tc.getActiveMember(addr)
		if err != nil {
			return err
		}
		return tc.expel(m, ExpelReasonAdmin)
	})
}

// GrantRole gives an address the admin or emergency role. Membership can
// only be gained through JoinDAO.
func (s *State) GrantRole(
	ctx context.Context,
	admin common.Address,
	addr common.Address,
	role Role,
) error {
	return s.changeRole(ctx, "GrantRole", admin, addr, role, true)
}

// RevokeRole takes the admin or emergency role from an address
func (s *State) RevokeRole(
	ctx context.Context,
	admin common.Address,
	addr common.Address,
	role Role,
) error {
	return s.changeRole(ctx, "RevokeRole", admin, addr, role, false)
}

func (s *State) changeRole(
	ctx context.Context,
	op string,
	admin common.Address,
	addr common.Address,
	role Role,
	grant bool,
) error {
	return s.mutate(ctx, op, admin, func(tc *txnContext) error {
		if err := tc.requireAdmin(admin); err != nil {
			return err
		}
		if role != RoleAdmin && role != RoleEmergency {
			return ErrInvalidFields.withMessage("role %q cannot be changed directly", role.String())
		}
		m, err := tc.getOrNewMember(addr)
		if err != nil {
			return err
		}
		roles := Role(m.Roles)
		if grant {
			roles |= role
		} else {
			roles &^= role
		}
		if roles == Role(m.Roles) {
			return nil
		}
		m.Roles = uint8(roles)
		if err := tc.db.SetMember(m, tc.txn); err != nil {
			return err
		}
		return tc.emit(Event{
			Type:    event.RoleChangedEventType,
			Address: ptr(addr),
			Caller:  ptr(admin),
			Roles:   ptr(roles),
		})
	})
}

// changeScore applies a score delta to a member and runs the expulsion
// check when the score goes down
func (tc *txnContext) changeScore(
	m *models.Member,
	delta int64,
	reason string,
	proposalId uint64,
	caller *common.Address,
) error {
	if (delta > 0 && m.GlassScore > math.MaxInt64-delta) ||
		(delta < 0 && m.GlassScore < math.MinInt64-delta) {
		return ErrInvalidFields.withMessage(
			"score change %d out of range for score %d",
			delta,
			m.GlassScore,
		)
	}
	m.GlassScore += delta
	if err := tc.db.SetMember(m, tc.txn); err != nil {
		return err
	}
	if err := tc.emit(Event{
		Type:       event.ScoreChangedEventType,
		Address:    ptr(common.HexToAddress(m.Address)),
		Caller:     caller,
		ProposalID: proposalId,
		Score:      ptr(m.GlassScore),
		ScoreDelta: delta,
		Reason:     reason,
	}); err != nil {
		return err
	}
	if delta < 0 {
		if _, err := tc.checkExpulsion(m); err != nil {
			return err
		}
	}
	return nil
}

// checkExpulsion expels the member if their score is below the threshold
// or they have collected too many penalties
func (tc *txnContext) checkExpulsion(m *models.Member) (bool, error) {
	if !m.Active {
		return false, nil
	}
	params := tc.params()
	var reason string
	switch {
	case m.GlassScore < params.ScoreToExpel:
		reason = ExpelReasonScore
	case params.CountToExpel > 0 && m.PenaltyCount >= params.CountToExpel:
		reason = ExpelReasonPenalties
	default:
		return false, nil
	}
	return true, tc.expel(m, reason)
}

// expel removes a member from the member set, revokes all roles and
// refunds the remaining bond to the address's credit balance
func (tc *txnContext) expel(m *models.Member, reason string) error {
	addr := common.HexToAddress(m.Address)
	refund := m.Bond
	m.Active = false
	m.Roles = 0
	m.Bond = types.Wei{}
	m.ExpelledAt = ptr(tc.now.Unix())
	if err := tc.db.SetMember(m, tc.txn); err != nil {
		return err
	}
	credit, err := tc.addCredit(addr, refund)
	if err != nil {
		return err
	}
	return tc.emit(Event{
		Type:         event.MemberExpelledEventType,
		Address:      ptr(addr),
		Score:        ptr(m.GlassScore),
		PenaltyCount: ptr(m.PenaltyCount),
		Amount:       ptr(refund),
		Credit:       ptr(credit),
		Reason:       reason,
	})
}

// IsMember reports whether the address is in the member set
func (s *State) IsMember(addr common.Address) (bool, error) {
	s.RLock()
	defer s.RUnlock()
	_, err := s.db.GetMember(addr.Hex(), false, nil)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetMember returns the record for an address, including expelled members
// and role holders that never joined
func (s *State) GetMember(addr common.Address) (*Member, error) {
	s.RLock()
	defer s.RUnlock()
	m, err := s.db.GetMember(addr.Hex(), true, nil)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return nil, ErrMemberNotFound.withMessage("%s", addr.Hex())
		}
		return nil, err
	}
	ret := memberFromModel(m)
	return &ret, nil
}

// GetMemberScore returns the glass score of a current member
func (s *State) GetMemberScore(addr common.Address) (int64, error) {
	s.RLock()
	defer s.RUnlock()
	m, err := s.db.GetMember(addr.Hex(), false, nil)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return 0, ErrNotMember.withMessage("%s", addr.Hex())
		}
		return 0, err
	}
	return m.GlassScore, nil
}

// GetMembers returns the member set, or every known address when
// includeInactive is set
func (s *State) GetMembers(includeInactive bool) ([]Member, error) {
	s.RLock()
	defer s.RUnlock()
	members, err := s.db.GetMembers(includeInactive, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Member, 0, len(members))
	for i := range members {
		ret = append(ret, memberFromModel(&members[i]))
	}
	return ret, nil
}
