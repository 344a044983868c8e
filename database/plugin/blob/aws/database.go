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

package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/glassdao/database/plugin/blob/objstore"
	"github.com/prometheus/client_golang/prometheus"
)

// BlobStoreS3 stores data in an AWS S3 bucket
type BlobStoreS3 struct {
	*objstore.Store

	promRegistry prometheus.Registerer
	logger       *slog.Logger
	bucket       string
	prefix       string
	region       string
	endpoint     string
	timeout      time.Duration
}

// New creates a new S3-backed blob store. The location must be
// "s3://bucket[/prefix]" and accepts the optional query parameters
// "region" and "endpoint".
func New(
	location string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreS3, error) {
	loc, err := objstore.ParseLocation("s3", location)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithBucket(loc.Bucket),
		WithPrefix(loc.Prefix),
		WithRegion(loc.Options.Get("region")),
		WithEndpoint(loc.Options.Get("endpoint")),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a new S3-backed blob store using options.
func NewWithOptions(opts ...BlobStoreS3OptionFunc) (*BlobStoreS3, error) {
	db := &BlobStoreS3{}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.timeout == 0 {
		db.timeout = objstore.DefaultTimeout
	}
	// AWS config loading happens in Start()
	return db, nil
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreS3) Start() error {
	if d.bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load default AWS config: %w", err)
	}
	if d.region != "" {
		awsCfg.Region = d.region
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if d.endpoint != "" {
			o.BaseEndpoint = aws.String(d.endpoint)
			o.UsePathStyle = true
		}
	})
	d.Store = objstore.New(
		&s3Client{
			client: client,
			bucket: d.bucket,
			prefix: d.prefix,
		},
		objstore.Config{
			Logger:       d.logger,
			PromRegistry: d.promRegistry,
			Name:         "s3",
			Timeout:      d.timeout,
		},
	)
	d.logger.Info(
		"using S3 blob store",
		"component", "database",
		"bucket", d.bucket,
		"prefix", d.prefix,
	)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreS3) Stop() error {
	return nil
}

// Close implements the BlobStore interface.
func (d *BlobStoreS3) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// Bucket returns the bucket name
func (d *BlobStoreS3) Bucket() string {
	return d.bucket
}

type s3Client struct {
	client *s3.Client
	bucket string
	prefix string
}

func (c *s3Client) fullKey(key string) string {
	return c.prefix + key
}

func (c *s3Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, objstore.ErrObjectNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (c *s3Client) Put(ctx context.Context, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.fullKey(key)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (c *s3Client) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if fullPrefix := c.fullKey(prefix); fullPrefix != "" {
		input.Prefix = aws.String(fullPrefix)
	}
	paginator := s3.NewListObjectsV2Paginator(c.client, input)
	keys := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(
				keys,
				strings.TrimPrefix(aws.ToString(obj.Key), c.prefix),
			)
		}
	}
	return keys, nil
}

func (c *s3Client) Close() error {
	return nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
