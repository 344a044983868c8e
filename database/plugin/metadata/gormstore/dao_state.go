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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
	"gorm.io/gorm"
)

// GetDaoState returns the DAO state row, or nil if the DAO has not been
// initialized yet
func (s *Store) GetDaoState(txn types.Txn) (*models.DaoState, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.DaoState{}
	result := db.First(ret, models.DaoStateRowId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetDaoState creates or replaces the DAO state row
func (s *Store) SetDaoState(state *models.DaoState, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	state.ID = models.DaoStateRowId
	return db.Save(state).Error
}

// GetCorruptionCounters returns the stored corruption counters, or nil if
// none have been recorded
func (s *Store) GetCorruptionCounters(
	txn types.Txn,
) (*models.CorruptionCounters, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.CorruptionCounters{}
	result := db.First(ret, models.CorruptionCountersRowId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetCorruptionCounters creates or replaces the corruption counters row
func (s *Store) SetCorruptionCounters(
	counters *models.CorruptionCounters,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	counters.ID = models.CorruptionCountersRowId
	return db.Save(counters).Error
}
