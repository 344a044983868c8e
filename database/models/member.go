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

import (
	"errors"

	"github.com/blinklabs-io/glassdao/database/types"
)

var ErrMemberNotFound = errors.New("member not found")

// Member is an address that has joined the DAO. Rows are kept after
// expulsion with Active=false so the history remains queryable.
type Member struct {
	ID           uint      `gorm:"primarykey"`
	Address      string    `gorm:"uniqueIndex;size:42;not null"`
	Bond         types.Wei `gorm:"size:78;not null"`
	GlassScore   int64     `gorm:"not null"`
	JoinedAt     int64     `gorm:"not null"`
	ExpelledAt   *int64
	PenaltyCount uint32 `gorm:"not null"`
	Roles        uint8  `gorm:"not null"`
	Active       bool   `gorm:"index;not null"`
}

func (Member) TableName() string {
	return "member"
}
