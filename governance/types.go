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
	"strings"
	"time"

	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/ethereum/go-ethereum/common"
)

// Role is a set of capability flags held by an address
type Role uint8

const (
	RoleMember Role = 1 << iota
	RoleAdmin
	RoleEmergency
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleMember, "member"},
	{RoleAdmin, "admin"},
	{RoleEmergency, "emergency"},
}

func (r Role) Has(role Role) bool {
	return r&role == role
}

func (r Role) String() string {
	var names []string
	for _, tmpRole := range roleNames {
		if r.Has(tmpRole.role) {
			names = append(names, tmpRole.name)
		}
	}
	return strings.Join(names, ",")
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	var tmpRoles Role
	for _, name := range strings.Split(string(text), ",") {
		if name == "" {
			continue
		}
		tmpRole, err := ParseRole(name)
		if err != nil {
			return err
		}
		tmpRoles |= tmpRole
	}
	*r = tmpRoles
	return nil
}

// ParseRole parses a single role name
func ParseRole(s string) (Role, error) {
	for _, tmpRole := range roleNames {
		if strings.EqualFold(s, tmpRole.name) {
			return tmpRole.role, nil
		}
	}
	return 0, ErrInvalidFields.withMessage("unknown role %q", s)
}

// SanctionType selects what a proposal does when executed
type SanctionType string

const (
	SanctionTreasuryIn  SanctionType = "treasury-in"
	SanctionTreasuryOut SanctionType = "treasury-out"
	SanctionRuleChange  SanctionType = "rule-change"
	SanctionGeneral     SanctionType = "general"
)

func (t SanctionType) Valid() bool {
	switch t {
	case SanctionTreasuryIn, SanctionTreasuryOut, SanctionRuleChange, SanctionGeneral:
		return true
	}
	return false
}

// Status is the lifecycle state of a proposal
type Status uint8

const (
	StatusPending Status = iota
	StatusPassed
	StatusRejected
	StatusExecuted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPassed:
		return "Passed"
	case StatusRejected:
		return "Rejected"
	case StatusExecuted:
		return "Executed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, tmpStatus := range []Status{StatusPending, StatusPassed, StatusRejected, StatusExecuted} {
		if string(text) == tmpStatus.String() {
			*s = tmpStatus
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(text))
}

// canTransition reports whether a proposal may move from one status to
// another
func (s Status) canTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusPassed || to == StatusRejected
	case StatusPassed:
		return to == StatusExecuted
	default:
		return false
	}
}

// Choice is a vote option
type Choice uint8

const (
	ChoiceFor Choice = iota + 1
	ChoiceAgainst
	ChoiceAbstain
)

func (c Choice) Valid() bool {
	return c >= ChoiceFor && c <= ChoiceAbstain
}

func (c Choice) String() string {
	switch c {
	case ChoiceFor:
		return "for"
	case ChoiceAgainst:
		return "against"
	case ChoiceAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("Choice(%d)", uint8(c))
	}
}

func (c Choice) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Choice) UnmarshalText(text []byte) error {
	tmpChoice, err := ParseChoice(string(text))
	if err != nil {
		return err
	}
	*c = tmpChoice
	return nil
}

// ParseChoice parses a vote option name
func ParseChoice(s string) (Choice, error) {
	for _, tmpChoice := range []Choice{ChoiceFor, ChoiceAgainst, ChoiceAbstain} {
		if strings.EqualFold(s, tmpChoice.String()) {
			return tmpChoice, nil
		}
	}
	return 0, ErrInvalidFields.withMessage("unknown vote choice %q", s)
}

// Member is an address known to the DAO. Addresses that only hold a role
// granted at genesis or by an admin are not Active.
type Member struct {
	Address      common.Address `json:"address"`
	Roles        Role           `json:"roles"`
	GlassScore   int64          `json:"glassScore"`
	PenaltyCount uint32         `json:"penaltyCount"`
	Bond         types.Wei      `json:"bond"`
	JoinedAt     time.Time      `json:"joinedAt"`
	Active       bool           `json:"active"`
	ExpelledAt   *time.Time     `json:"expelledAt,omitempty"`
}

// ProposalInput holds the caller-supplied fields of a new proposal
type ProposalInput struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	SanctionType SanctionType   `json:"sanctionType"`
	Amount       types.Wei      `json:"amount"`
	Recipient    common.Address `json:"recipient"`
	RuleToChange string         `json:"ruleToChange,omitempty"`
	NewValue     string         `json:"newValue,omitempty"`
}

// Proposal is a governance action record
type Proposal struct {
	ID                         uint64           `json:"id"`
	Title                      string           `json:"title"`
	Description                string           `json:"description"`
	Proposer                   common.Address   `json:"proposer"`
	SanctionType               SanctionType     `json:"sanctionType"`
	Amount                     types.Wei        `json:"amount"`
	Recipient                  *common.Address  `json:"recipient,omitempty"`
	RuleToChange               string           `json:"ruleToChange,omitempty"`
	BeforeValue                string           `json:"beforeValue,omitempty"`
	AfterValue                 string           `json:"afterValue,omitempty"`
	StartTime                  time.Time        `json:"startTime"`
	EndTime                    time.Time        `json:"endTime"`
	Status                     Status           `json:"status"`
	VotesFor                   uint32           `json:"votesFor"`
	VotesAgainst               uint32           `json:"votesAgainst"`
	VotesAbstain               uint32           `json:"votesAbstain"`
	Voters                     []common.Address `json:"voters"`
	Snapshot                   RuleParams       `json:"snapshot"`
	FinalizedAt                *time.Time       `json:"finalizedAt,omitempty"`
	ExecutedAt                 *time.Time       `json:"executedAt,omitempty"`
	TotalMembersAtFinalization uint32           `json:"totalMembersAtFinalization"`
	ExecutionAttempts          uint32           `json:"executionAttempts"`
	LastExecutionError         string           `json:"lastExecutionError,omitempty"`
}

// VoteRecord is a single recorded vote
type VoteRecord struct {
	ProposalID uint64         `json:"proposalId"`
	Voter      common.Address `json:"voter"`
	Choice     Choice         `json:"choice"`
	CastAt     time.Time      `json:"castAt"`
}

// DaoDetails summarizes the DAO
type DaoDetails struct {
	Name            string     `json:"name"`
	Params          RuleParams `json:"params"`
	MemberCount     uint64     `json:"memberCount"`
	ProposalCount   uint64     `json:"proposalCount"`
	VaultBalance    types.Wei  `json:"vaultBalance"`
	CorruptionIndex uint64     `json:"corruptionIndex"`
	EventCount      uint64     `json:"eventCount"`
	GenesisTime     time.Time  `json:"genesisTime"`
}

// FinalizeResult describes everything a successful finalization did
type FinalizeResult struct {
	ProposalID         uint64           `json:"proposalId"`
	Status             Status           `json:"status"`
	Passed             bool             `json:"passed"`
	Executed           bool             `json:"executed"`
	ExecutionError     error            `json:"-"`
	Penalized          []common.Address `json:"penalized"`
	Expelled           []common.Address `json:"expelled"`
	PenaltiesCollected types.Wei        `json:"penaltiesCollected"`
}

// VaultEntry is one line of the vault ledger
type VaultEntry struct {
	Direction    string          `json:"direction"`
	Amount       types.Wei       `json:"amount"`
	BalanceAfter types.Wei       `json:"balanceAfter"`
	Counterparty *common.Address `json:"counterparty,omitempty"`
	Reason       string          `json:"reason"`
	ProposalID   *uint64         `json:"proposalId,omitempty"`
	EventSeq     uint64          `json:"eventSeq"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Vault ledger entry reasons
const (
	VaultReasonEntryFee      = "entry-fee"
	VaultReasonDeposit       = "deposit"
	VaultReasonAbsentPenalty = "absent-penalty"
	VaultReasonTreasuryOut   = "treasury-out"
)
