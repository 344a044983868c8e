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
	"github.com/blinklabs-io/glassdao/database/types"
)

// metadataTxn returns the metadata handle for txn, or nil to use the
// store's own connection
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetDaoState returns the DAO state row, or nil if the DAO has not been
// initialized yet
func (d *Database) GetDaoState(txn *Txn) (*models.DaoState, error) {
	return d.metadata.GetDaoState(metadataTxn(txn))
}

func (d *Database) SetDaoState(state *models.DaoState, txn *Txn) error {
	return d.metadata.SetDaoState(state, metadataTxn(txn))
}

func (d *Database) GetCorruptionCounters(
	txn *Txn,
) (*models.CorruptionCounters, error) {
	return d.metadata.GetCorruptionCounters(metadataTxn(txn))
}

func (d *Database) SetCorruptionCounters(
	counters *models.CorruptionCounters,
	txn *Txn,
) error {
	return d.metadata.SetCorruptionCounters(counters, metadataTxn(txn))
}
