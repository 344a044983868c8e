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

// AddVaultEntry appends a line to the vault ledger
func (s *Store) AddVaultEntry(entry *models.VaultEntry, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(entry).Error
}

// GetVaultEntries returns the vault ledger in insertion order
func (s *Store) GetVaultEntries(txn types.Txn) ([]models.VaultEntry, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.VaultEntry
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetCredit returns the credit balance of an address. An address with no
// record has a zero balance.
func (s *Store) GetCredit(address string, txn types.Txn) (*models.Credit, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Credit{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &models.Credit{Address: address}, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCredits returns all credit balances
func (s *Store) GetCredits(txn types.Txn) ([]models.Credit, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Credit
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetCredit creates or updates a credit balance
func (s *Store) SetCredit(credit *models.Credit, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Save(credit).Error
}
