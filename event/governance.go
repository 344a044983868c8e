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

package event

// Governance event types. Each state change committed by the governance
// state machine is appended to the event log and then published on the bus
// under one of these types.
const (
	MemberJoinedEventType       = EventType("MemberJoined")
	MemberExpelledEventType     = EventType("MemberExpelled")
	ScoreChangedEventType       = EventType("ScoreChanged")
	PenaltyAppliedEventType     = EventType("PenaltyApplied")
	RoleChangedEventType        = EventType("RoleChanged")
	BondDepositedEventType      = EventType("BondDeposited")
	ProposalCreatedEventType    = EventType("ProposalCreated")
	VoteCastEventType           = EventType("VoteCast")
	ProposalFinalizedEventType  = EventType("ProposalFinalized")
	ProposalExecutedEventType   = EventType("ProposalExecuted")
	ExecutionDeferredEventType  = EventType("ExecutionDeferred")
	ExecutionConfirmedEventType = EventType("ExecutionConfirmed")
	RuleChangedEventType        = EventType("RuleChanged")
	VaultDepositEventType       = EventType("VaultDeposit")
	VaultTransferEventType      = EventType("VaultTransfer")
	CreditWithdrawnEventType    = EventType("CreditWithdrawn")
	MetricsUpdatedEventType     = EventType("MetricsUpdated")
)

// GovernanceEventTypes lists every governance event type
var GovernanceEventTypes = []EventType{
	MemberJoinedEventType,
	MemberExpelledEventType,
	ScoreChangedEventType,
	PenaltyAppliedEventType,
	RoleChangedEventType,
	BondDepositedEventType,
	ProposalCreatedEventType,
	VoteCastEventType,
	ProposalFinalizedEventType,
	ProposalExecutedEventType,
	ExecutionDeferredEventType,
	ExecutionConfirmedEventType,
	RuleChangedEventType,
	VaultDepositEventType,
	VaultTransferEventType,
	CreditWithdrawnEventType,
	MetricsUpdatedEventType,
}

// IsGovernanceEventType reports whether t is a governance event type
func IsGovernanceEventType(t EventType) bool {
	for _, evtType := range GovernanceEventTypes {
		if evtType == t {
			return true
		}
	}
	return false
}
