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

// Package objstore implements the blob store on top of an object storage
// service. Writes are buffered in the transaction and uploaded on commit,
// so a rolled back transaction leaves nothing behind.
package objstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultTimeout = 60 * time.Second

// ErrObjectNotFound is returned by Client.Get for a missing object
var ErrObjectNotFound = errors.New("object not found")

// Client is the object storage API used by Store. Keys are relative to the
// configured bucket and prefix.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Name identifies the backend in logs and metrics
	Name    string
	Timeout time.Duration
}

// Store implements the blob store operations over a Client
type Store struct {
	client   Client
	logger   *slog.Logger
	metrics  storeMetrics
	name     string
	timeout  time.Duration
	commitMu sync.Mutex
}

func New(client Client, cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	s := &Store{
		client:  client,
		logger:  cfg.Logger.With("component", "database", "blob", cfg.Name),
		name:    cfg.Name,
		timeout: cfg.Timeout,
	}
	s.metrics.init(cfg.PromRegistry, cfg.Name)
	return s
}

// objectKey maps a blob key to an object key. Hex keeps binary keys valid
// as object names and preserves their sort order.
func objectKey(key []byte) string {
	return hex.EncodeToString(key)
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

type objTxn struct {
	store     *Store
	writes    map[string][]byte
	readWrite bool
	finished  bool
}

// NewTransaction returns a transaction that buffers writes until Commit
func (s *Store) NewTransaction(readWrite bool) types.Txn {
	return &objTxn{
		store:     s,
		readWrite: readWrite,
		writes:    make(map[string][]byte),
	}
}

func (s *Store) validateTxn(txn types.Txn) (*objTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*objTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if t.store != s {
		return nil, errors.New("transaction from different store")
	}
	if t.finished {
		return nil, errors.New("transaction already finished")
	}
	return t, nil
}

// Commit uploads the buffered writes. The commit timestamp is written last
// so that an interrupted commit is detected on the next start.
func (t *objTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if len(t.writes) == 0 {
		return nil
	}
	s := t.store
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	tsKey := objectKey([]byte(types.CommitTimestampBlobKey))
	keys := make([]string, 0, len(t.writes))
	for key := range t.writes {
		if key != tsKey {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	if _, ok := t.writes[tsKey]; ok {
		keys = append(keys, tsKey)
	}
	for _, key := range keys {
		if err := s.put(key, t.writes[key]); err != nil {
			return fmt.Errorf("%s blob: commit: %w", s.name, err)
		}
	}
	return nil
}

func (t *objTxn) Rollback() error {
	t.finished = true
	t.writes = nil
	return nil
}

func (s *Store) put(key string, data []byte) error {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.client.Put(ctx, key, data); err != nil {
		s.metrics.errors.Inc()
		s.logger.Error(
			"object put failed",
			"key", key,
			"error", err,
		)
		return err
	}
	s.metrics.ops.WithLabelValues("put").Inc()
	s.metrics.bytes.WithLabelValues("put").Add(float64(len(data)))
	return nil
}

func (s *Store) get(key string) ([]byte, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		s.metrics.errors.Inc()
		s.logger.Error(
			"object get failed",
			"key", key,
			"error", err,
		)
		return nil, err
	}
	s.metrics.ops.WithLabelValues("get").Inc()
	s.metrics.bytes.WithLabelValues("get").Add(float64(len(data)))
	return data, nil
}

// Get returns a value, including writes buffered in the transaction
func (s *Store) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := s.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	if val, ok := t.writes[objectKey(key)]; ok {
		return slices.Clone(val), nil
	}
	return s.get(objectKey(key))
}

// Set buffers a write in the transaction
func (s *Store) Set(txn types.Txn, key, val []byte) error {
	t, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if !t.readWrite {
		return types.ErrReadOnlyTxn
	}
	t.writes[objectKey(key)] = slices.Clone(val)
	return nil
}

// NewIterator lists the keys matching the prefix when it is created. Items
// must only be accessed while the transaction is still active.
func (s *Store) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	t, err := s.validateTxn(txn)
	if err != nil {
		return &errorIterator{err: err}
	}
	keys, err := s.listKeys(opts.Prefix)
	if err != nil {
		return &errorIterator{err: err}
	}
	prefix := objectKey(opts.Prefix)
	for key := range t.writes {
		if strings.HasPrefix(key, prefix) && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	if opts.Reverse {
		slices.Reverse(keys)
	}
	decoded := make([][]byte, 0, len(keys))
	for _, key := range keys {
		tmpKey, err := hex.DecodeString(key)
		if err != nil {
			// Objects not written by this store
			continue
		}
		decoded = append(decoded, tmpKey)
	}
	return &objIterator{txn: t, keys: decoded, reverse: opts.Reverse}
}

func (s *Store) listKeys(prefix []byte) ([]string, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	keys, err := s.client.List(ctx, objectKey(prefix))
	if err != nil {
		s.metrics.errors.Inc()
		s.logger.Error(
			"object list failed",
			"error", err,
		)
		return nil, err
	}
	s.metrics.ops.WithLabelValues("list").Inc()
	return keys, nil
}

func (s *Store) GetCommitTimestamp() (int64, error) {
	txn := s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	val, err := s.Get(txn, []byte(types.CommitTimestampBlobKey))
	if err != nil {
		return 0, err
	}
	return types.DecodeCommitTimestamp(val)
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return s.Set(
		txn,
		[]byte(types.CommitTimestampBlobKey),
		types.EncodeCommitTimestamp(timestamp),
	)
}

type objIterator struct {
	txn     *objTxn
	keys    [][]byte
	idx     int
	reverse bool
}

func (it *objIterator) Rewind() {
	it.idx = 0
}

func (it *objIterator) Seek(prefix []byte) {
	it.idx = len(it.keys)
	for i, key := range it.keys {
		cmp := strings.Compare(string(key), string(prefix))
		if (!it.reverse && cmp >= 0) || (it.reverse && cmp <= 0) {
			it.idx = i
			return
		}
	}
}

func (it *objIterator) Valid() bool {
	return it.idx < len(it.keys)
}

func (it *objIterator) ValidForPrefix(prefix []byte) bool {
	return it.Valid() && strings.HasPrefix(string(it.keys[it.idx]), string(prefix))
}

func (it *objIterator) Next() {
	if it.idx < len(it.keys) {
		it.idx++
	}
}

func (it *objIterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &objItem{txn: it.txn, key: it.keys[it.idx]}
}

func (it *objIterator) Close() {}

func (it *objIterator) Err() error { return nil }

type errorIterator struct {
	err error
}

func (it *errorIterator) Rewind()                      {}
func (it *errorIterator) Seek(prefix []byte)           {}
func (it *errorIterator) Valid() bool                  { return false }
func (it *errorIterator) ValidForPrefix(p []byte) bool { return false }
func (it *errorIterator) Next()                        {}
func (it *errorIterator) Item() types.BlobItem         { return nil }
func (it *errorIterator) Close()                       {}
func (it *errorIterator) Err() error                   { return it.err }

type objItem struct {
	txn *objTxn
	key []byte
}

func (i *objItem) Key() []byte {
	return slices.Clone(i.key)
}

func (i *objItem) ValueCopy(dst []byte) ([]byte, error) {
	data, err := i.txn.store.Get(i.txn, i.key)
	if err != nil {
		return nil, err
	}
	return append(dst[:0], data...), nil
}
