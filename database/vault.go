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

package database

import (
	"github.com/blinklabs-io/glassdao/database/models"
)

func (d *Database) AddVaultEntry(entry *models.VaultEntry, txn *Txn) error {
	return d.metadata.AddVaultEntry(entry, metadataTxn(txn))
}

// GetVaultEntries returns the vault ledger in insertion order
func (d *Database) GetVaultEntries(txn *Txn) ([]models.VaultEntry, error) {
	return d.metadata.GetVaultEntries(metadataTxn(txn))
}

// GetCredit returns the withdrawable balance for address. A zero credit is
// returned for unknown addresses.
func (d *Database) GetCredit(
	address string,
	txn *Txn,
) (*models.Credit, error) {
	return d.metadata.GetCredit(address, metadataTxn(txn))
}

func (d *Database) GetCredits(txn *Txn) ([]models.Credit, error) {
	return d.metadata.GetCredits(metadataTxn(txn))
}

func (d *Database) SetCredit(credit *models.Credit, txn *Txn) error {
	return d.metadata.SetCredit(credit, metadataTxn(txn))
}
