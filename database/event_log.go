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
	"fmt"
	"math"

	"github.com/blinklabs-io/glassdao/database/types"
)

// EventRecord is a raw event log entry as stored in the blob store
type EventRecord struct {
	Seq  uint64
	Data []byte
}

// AddEventRecord stores an event log record. A read-write transaction is
// required so the record commits with the state change it describes.
func (d *Database) AddEventRecord(seq uint64, data []byte, txn *Txn) error {
	if txn == nil || txn.Blob() == nil {
		return types.ErrNilTxn
	}
	return d.blob.Set(txn.Blob(), types.EventBlobKey(seq), data)
}

// GetEventRecord returns the event log record with the given sequence
// number
func (d *Database) GetEventRecord(seq uint64, txn *Txn) (EventRecord, error) {
	blobTxn, release := d.blobReadTxn(txn)
	defer release()
	data, err := d.blob.Get(blobTxn, types.EventBlobKey(seq))
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{Seq: seq, Data: data}, nil
}

// GetEventRecords returns up to limit event log records with a sequence
// number greater than afterSeq, in sequence order. A limit of 0 returns all
// remaining records.
func (d *Database) GetEventRecords(
	afterSeq uint64,
	limit int,
	txn *Txn,
) ([]EventRecord, error) {
	if afterSeq == math.MaxUint64 {
		return []EventRecord{}, nil
	}
	blobTxn, release := d.blobReadTxn(txn)
	defer release()
	prefix := []byte(types.EventBlobKeyPrefix)
	iter := d.blob.NewIterator(
		blobTxn,
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	ret := []EventRecord{}
	for iter.Seek(types.EventBlobKey(afterSeq + 1)); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		seq, ok := types.EventBlobKeySeq(item.Key())
		if !ok {
			return nil, fmt.Errorf("malformed event key: %x", item.Key())
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("read event %d: %w", seq, err)
		}
		ret = append(ret, EventRecord{Seq: seq, Data: data})
		if limit > 0 && len(ret) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// blobReadTxn returns the blob handle of txn, or a new read-only blob
// transaction along with a function to release it
func (d *Database) blobReadTxn(txn *Txn) (types.Txn, func()) {
	if txn != nil && txn.Blob() != nil {
		return txn.Blob(), func() {}
	}
	blobTxn := d.blob.NewTransaction(false)
	return blobTxn, func() {
		if err := blobTxn.Rollback(); err != nil {
			d.logger.Debug(
				"blob read transaction release failed",
				"component", "database",
				"error", err,
			)
		}
	}
}
