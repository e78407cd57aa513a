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

// Command nhldata-crawl downloads NHL player stats for a date range and
// lands them as CSV files, one per date. It exits non-zero when any date in
// the range failed to land.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/pucklab/nhldata/crawl"
	"github.com/pucklab/nhldata/db"
	"github.com/pucklab/nhldata/nhl"
	"github.com/pucklab/nhldata/storage"
)

type Flags struct {
	StartDate db.Date
	EndDate   db.Date
	ConfigDir string // default: ~/.nhldata
	LogLevel  logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	var startDate, endDate string
	fs := flag.NewFlagSet("nhldata-crawl", flag.ExitOnError)
	fs.StringVar(&startDate, "start-date", "", "first date to crawl, yyyy-mm-dd (required)")
	fs.StringVar(&endDate, "end-date", "", "last date to crawl, inclusive, yyyy-mm-dd (required)")
	fs.StringVar(&flags.ConfigDir, "config",
		filepath.Join(os.Getenv("HOME"), ".nhldata"),
		"path to the directory with config.toml")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if startDate == "" || endDate == "" {
		return nil, errors.Reason("both -start-date and -end-date are required")
	}
	var err error
	if flags.StartDate, err = db.NewDateFromString(startDate); err != nil {
		return nil, errors.Annotate(err, "invalid -start-date")
	}
	if flags.EndDate, err = db.NewDateFromString(endDate); err != nil {
		return nil, errors.Annotate(err, "invalid -end-date")
	}
	if flags.EndDate.Before(flags.StartDate) {
		return nil, errors.Reason("-end-date %s is before -start-date %s",
			flags.EndDate, flags.StartDate)
	}
	return &flags, nil
}

type S3Config struct {
	Endpoint string `toml:"endpoint"` // e.g. a local MinIO endpoint
	Region   string `toml:"region"`
}

type Config struct {
	Bucket  string   `toml:"bucket"`   // destination bucket / dir name
	DataDir string   `toml:"data_dir"` // root of the local bucket stand-in
	BaseURL string   `toml:"base_url"` // override the stats API base URL
	S3      S3Config `toml:"s3"`       // when endpoint is set, land into S3
}

// parseConfig reads config.toml from the config dir. A missing file yields
// the default config: land into <config dir>/s3_data/output.
func parseConfig(dir string) (*Config, error) {
	c := Config{Bucket: "output"}
	filePath := filepath.Join(dir, "config.toml")
	f, err := os.Open(filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err, "failed to open config file '%s'", filePath)
		}
	} else {
		defer f.Close()
		if err := toml.NewDecoder(f).Decode(&c); err != nil {
			return nil, errors.Annotate(err, "failed to read config file '%s'", filePath)
		}
	}
	if c.Bucket == "" {
		return nil, errors.Reason("bucket must not be empty in '%s'", filePath)
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(dir, "s3_data")
	}
	return &c, nil
}

func newStorage(ctx context.Context, config *Config) (storage.Storage, error) {
	if config.S3.Endpoint != "" {
		logging.Infof(ctx, "landing into s3://%s via %s", config.Bucket, config.S3.Endpoint)
		return storage.NewS3(ctx, storage.S3Options{
			Bucket:   config.Bucket,
			Endpoint: config.S3.Endpoint,
			Region:   config.S3.Region,
		})
	}
	root := filepath.Join(config.DataDir, config.Bucket)
	logging.Infof(ctx, "landing into directory %s", root)
	return storage.NewDir(root), nil
}

func run(ctx context.Context, flags *Flags) error {
	config, err := parseConfig(flags.ConfigDir)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	store, err := newStorage(ctx, config)
	if err != nil {
		return errors.Annotate(err, "failed to init storage")
	}
	crawler := crawl.New(nhl.NewClient(config.BaseURL), store)
	res, err := crawler.Crawl(ctx, flags.StartDate, flags.EndDate)
	if err != nil {
		return errors.Annotate(err, "crawl aborted")
	}
	if len(res.Failures) > 0 {
		for _, f := range res.Failures {
			logging.Warningf(ctx, "failed date %s", f)
		}
		return errors.Reason("%d date(s) failed, %d file(s) landed",
			len(res.Failures), res.Files)
	}
	return nil
}

// main is not tested, keep it short.
func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
