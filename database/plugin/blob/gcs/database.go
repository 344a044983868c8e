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

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/glassdao/database/plugin/blob/objstore"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BlobStoreGCS stores data in a Google Cloud Storage bucket.
type BlobStoreGCS struct {
	*objstore.Store

	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	client          *storage.Client
	bucketName      string
	prefix          string
	credentialsFile string
	timeout         time.Duration
}

// New creates a new GCS-backed blob store. The location must be
// "gs://bucket[/prefix]" and accepts the optional query parameter
// "credentials" naming a service account key file.
func New(
	location string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreGCS, error) {
	loc, err := objstore.ParseLocation("gs", location)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithBucket(loc.Bucket),
		WithPrefix(loc.Prefix),
		WithCredentialsFile(loc.Options.Get("credentials")),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a new GCS-backed blob store using options.
func NewWithOptions(opts ...BlobStoreGCSOptionFunc) (*BlobStoreGCS, error) {
	db := &BlobStoreGCS{}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.timeout == 0 {
		db.timeout = objstore.DefaultTimeout
	}
	return db, nil
}

func validateCredentials(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("gcs blob: credentials file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("gcs blob: credentials file %s is a directory", path)
	}
	return nil
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Start() error {
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}
	if d.credentialsFile != "" {
		if err := validateCredentials(d.credentialsFile); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clientOpts := []option.ClientOption{
		storage.WithDisabledClientMetrics(),
	}
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}
	d.client = client
	d.Store = objstore.New(
		&gcsClient{
			bucket: client.Bucket(d.bucketName),
			prefix: d.prefix,
		},
		objstore.Config{
			Logger:       d.logger,
			PromRegistry: d.promRegistry,
			Name:         "gcs",
			Timeout:      d.timeout,
		},
	)
	d.logger.Info(
		"using GCS blob store",
		"component", "database",
		"bucket", d.bucketName,
		"prefix", d.prefix,
	)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

// Close closes the GCS client.
func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// Bucket returns the bucket name
func (d *BlobStoreGCS) Bucket() string {
	return d.bucketName
}

type gcsClient struct {
	bucket *storage.BucketHandle
	prefix string
}

func (c *gcsClient) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := c.bucket.Object(c.prefix + key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, objstore.ErrObjectNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *gcsClient) Put(ctx context.Context, key string, data []byte) error {
	w := c.bucket.Object(c.prefix + key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (c *gcsClient) List(ctx context.Context, prefix string) ([]string, error) {
	it := c.bucket.Objects(ctx, &storage.Query{Prefix: c.prefix + prefix})
	keys := make([]string, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name[len(c.prefix):])
	}
	return keys, nil
}

// The storage client is owned by BlobStoreGCS
func (c *gcsClient) Close() error {
	return nil
}
