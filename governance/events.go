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
	"encoding/json"
	"fmt"
	"time"

	"github.com/blinklabs-io/glassdao/database"
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
)

// Event is a record in the append-only governance event log. Each record
// carries the values that resulted from the change it describes, so the
// full state can be rebuilt from the log alone.
type Event struct {
	Seq          uint64          `json:"seq"`
	Type         event.EventType `json:"type"`
	Timestamp    int64           `json:"timestamp"`
	Address      *common.Address `json:"address,omitempty"`
	Caller       *common.Address `json:"caller,omitempty"`
	ProposalID   uint64          `json:"proposalId,omitempty"`
	Amount       *types.Wei      `json:"amount,omitempty"`
	VaultBalance *types.Wei      `json:"vaultBalance,omitempty"`
	Score        *int64          `json:"score,omitempty"`
	ScoreDelta   int64           `json:"scoreDelta,omitempty"`
	PenaltyCount *uint32         `json:"penaltyCount,omitempty"`
	Bond         *types.Wei      `json:"bond,omitempty"`
	Credit       *types.Wei      `json:"credit,omitempty"`
	Roles        *Role           `json:"roles,omitempty"`
	Status       *Status         `json:"status,omitempty"`
	Choice       Choice          `json:"choice,omitempty"`
	Tally        *Tally          `json:"tally,omitempty"`
	Rule         string          `json:"rule,omitempty"`
	OldValue     string          `json:"oldValue,omitempty"`
	NewValue     string          `json:"newValue,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Proposal     *Proposal       `json:"proposal,omitempty"`
	Counters     *Counters       `json:"counters,omitempty"`
	Index        *uint64         `json:"index,omitempty"`
}

// Tally is the vote count of a proposal
type Tally struct {
	For          uint32 `json:"for"`
	Against      uint32 `json:"against"`
	Abstain      uint32 `json:"abstain"`
	TotalMembers uint32 `json:"totalMembers,omitempty"`
}

// Time returns the event timestamp
func (e Event) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

func ptr[T any](v T) *T {
	return &v
}

func decodeEvent(record database.EventRecord) (Event, error) {
	var evt Event
	if err := json.Unmarshal(record.Data, &evt); err != nil {
		return evt, fmt.Errorf("decode event %d: %w", record.Seq, err)
	}
	if evt.Seq != record.Seq {
		return evt, fmt.Errorf(
			"event %d: stored sequence %d does not match its key",
			record.Seq,
			evt.Seq,
		)
	}
	return evt, nil
}

// emit assigns the next sequence number to an event and writes it to the
// log in the current transaction. It is published once the transaction
// commits.
func (tc *txnContext) emit(evt Event) error {
	tc.dao.EventSeq++
	evt.Seq = tc.dao.EventSeq
	evt.Timestamp = tc.now.Unix()
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	if err := tc.db.AddEventRecord(evt.Seq, data, tc.txn); err != nil {
		return fmt.Errorf("store %s event: %w", evt.Type, err)
	}
	tc.events = append(tc.events, evt)
	return nil
}

// GetEvents returns up to limit events with a sequence number greater than
// afterSeq. A limit of 0 returns all remaining events.
func (s *State) GetEvents(afterSeq uint64, limit int) ([]Event, error) {
	s.RLock()
	defer s.RUnlock()
	records, err := s.db.GetEventRecords(afterSeq, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Event, 0, len(records))
	for _, record := range records {
		evt, err := decodeEvent(record)
		if err != nil {
			return nil, err
		}
		ret = append(ret, evt)
	}
	return ret, nil
}

func (s *State) publish(events []Event) {
	if s.config.EventBus == nil {
		return
	}
	for _, evt := range events {
		s.config.EventBus.Publish(
			evt.Type,
			event.Event{
				Type:      evt.Type,
				Timestamp: evt.Time(),
				Data:      evt,
			},
		)
	}
}
