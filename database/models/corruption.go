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

package models

// CorruptionCountersRowId is the primary key of the single counters row
const CorruptionCountersRowId = 1

// CorruptionCounters holds the raw counters last supplied to the corruption
// index along with the computed index value (basis points)
type CorruptionCounters struct {
	ID            uint   `gorm:"primarykey"`
	Proposals     uint64 `gorm:"not null"`
	TreasuryOut   uint64 `gorm:"not null"`
	Rejected      uint64 `gorm:"not null"`
	Penalties     uint64 `gorm:"not null"`
	VotesCast     uint64 `gorm:"not null"`
	VotesPossible uint64 `gorm:"not null"`
	IndexValue    uint64 `gorm:"not null"`
	ComputedAt    int64  `gorm:"not null"`
}

func (CorruptionCounters) TableName() string {
	return "corruption_counters"
}
