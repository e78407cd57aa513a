// Copyright 2025 PuckLab

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stockparfait/errors"
)

// S3Options configures the S3-backed storage.
type S3Options struct {
	Bucket   string
	Prefix   string // optional key prefix within the bucket
	Endpoint string // optional override, e.g. a local MinIO endpoint
	Region   string // optional, defaults to the SDK's resolution
}

// S3 is a Storage backed by an S3-compatible object store. A non-empty
// endpoint switches to path-style addressing, which MinIO requires.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ Storage = &S3{}

// NewS3 creates the S3-backed storage using the default AWS credential
// chain.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, errors.Reason("S3 bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load AWS config")
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *S3) objectKey(key Key) string {
	if s.prefix == "" {
		return key.Name()
	}
	return s.prefix + "/" + key.Name()
}

// Put implements Storage.
func (s *S3) Put(ctx context.Context, key Key, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return errors.Annotate(err, "failed to put object '%s' in bucket '%s'",
			s.objectKey(key), s.bucket)
	}
	return nil
}
