// Copyright 2026 Poiesic Systems
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


// Package gcs provides a Google Cloud Storage backed object store for
// fetching uploaded instrumentation logs.
package gcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	gstorage "cloud.google.com/go/storage"

	"github.com/poiesic/measurit/storage"
)

// ObjectStore fetches raw log bytes from GCS buckets.
type ObjectStore struct {
	client *gstorage.Client
	logger *slog.Logger
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// NewObjectStore creates a GCS-backed object store using ambient
// application-default credentials.
func NewObjectStore(ctx context.Context, logger *slog.Logger) (*ObjectStore, error) {
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &ObjectStore{
		client: client,
		logger: logger,
	}, nil
}

// Download reads the full contents of an object. Logs are small enough to
// hold in memory; parsing wants the whole byte slice anyway.
func (s *ObjectStore) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", storage.ErrDownloadFailed, bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", storage.ErrDownloadFailed, bucket, object, err)
	}

	s.logger.Debug("downloaded object",
		"bucket", bucket,
		"object", object,
		"bytes", len(data))
	return data, nil
}

// Close releases the underlying client.
func (s *ObjectStore) Close() error {
	return s.client.Close()
}
