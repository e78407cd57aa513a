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

// Package storage persists landed CSV files, either in a local directory
// tree acting as a bucket or in an S3-compatible object store.
package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"

	"github.com/pucklab/nhldata/db"
)

// Key identifies a landed file within the bucket: one file per date.
type Key struct {
	Date db.Date
}

// Name renders the object key, e.g. "20220109.csv".
func (k Key) Name() string {
	return k.Date.Key() + ".csv"
}

// Storage is a write-only landed-file store. Put creates or overwrites the
// object at key; the crawler never writes the same key twice within a run.
type Storage interface {
	Put(ctx context.Context, key Key, body []byte) error
}

// Dir is a Storage backed by a directory tree.
type Dir struct {
	root string
}

var _ Storage = &Dir{}

// NewDir creates a directory-backed storage rooted at root. The directory is
// created on the first Put.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Path returns the file path for the given key.
func (d *Dir) Path(key Key) string {
	return filepath.Join(d.root, key.Name())
}

// Put implements Storage.
func (d *Dir) Put(ctx context.Context, key Key, body []byte) error {
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return errors.Annotate(err, "failed to create storage dir '%s'", d.root)
	}
	fileName := d.Path(key)
	if err := os.WriteFile(fileName, body, 0644); err != nil {
		return errors.Annotate(err, "failed to write file '%s'", fileName)
	}
	return nil
}
