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
	"fmt"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
	"gorm.io/gorm"
)

// GetMember returns the member record for an address. Expelled members are
// only returned when includeInactive is set.
func (s *Store) GetMember(
	address string,
	includeInactive bool,
	txn types.Txn,
) (*models.Member, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Member{}
	query := db.Where("address = ?", address)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	result := query.First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrMemberNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetMembers returns members ordered by join time
func (s *Store) GetMembers(
	includeInactive bool,
	txn types.Txn,
) ([]models.Member, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Member
	query := db.Order("id")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountActiveMembers returns the size of the current member set
func (s *Store) CountActiveMembers(txn types.Txn) (int64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.Member{}).
		Where("active = ?", true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// SetMember creates or updates a member record. Records read from the
// store carry their primary key and are updated in place.
func (s *Store) SetMember(member *models.Member, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(member); result.Error != nil {
		return fmt.Errorf("set member %s: %w", member.Address, result.Error)
	}
	return nil
}
