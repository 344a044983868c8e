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

// GetMember returns the member with the given address. Expelled members are
// only returned when includeInactive is set.
func (d *Database) GetMember(
	address string,
	includeInactive bool,
	txn *Txn,
) (*models.Member, error) {
	return d.metadata.GetMember(address, includeInactive, metadataTxn(txn))
}

func (d *Database) GetMembers(
	includeInactive bool,
	txn *Txn,
) ([]models.Member, error) {
	return d.metadata.GetMembers(includeInactive, metadataTxn(txn))
}

func (d *Database) CountActiveMembers(txn *Txn) (int64, error) {
	return d.metadata.CountActiveMembers(metadataTxn(txn))
}

func (d *Database) SetMember(member *models.Member, txn *Txn) error {
	return d.metadata.SetMember(member, metadataTxn(txn))
}
