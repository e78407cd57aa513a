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

// Package crawl drives the extraction: for each date in the requested range
// it fetches the games' boxscores, flattens them into flat records, and
// lands exactly one CSV file per date in storage. Dates are processed
// sequentially; a failed date is recorded and the remaining dates are still
// processed.
package crawl

import (
	"bytes"
	"context"
	"fmt"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/pucklab/nhldata/db"
	"github.com/pucklab/nhldata/nhl"
	"github.com/pucklab/nhldata/storage"
)

// API is the part of the stats client the crawler needs.
type API interface {
	Schedule(ctx context.Context, start, end db.Date) ([]nhl.ScheduleDate, error)
	Boxscore(ctx context.Context, gameID int64) (*nhl.Boxscore, error)
}

var _ API = &nhl.Client{}

// Kind classifies a per-date failure.
type Kind string

// Failure kinds, one per error class of the pipeline.
const (
	KindRemote = Kind("remote") // service unreachable or non-2xx status
	KindParse  = Kind("parse")  // malformed response body
	KindIO     = Kind("io")     // landed file could not be written
)

func classify(err error) Kind {
	var remoteErr nhl.RemoteError
	if errors.As(err, &remoteErr) {
		return KindRemote
	}
	var parseErr nhl.ParseError
	if errors.As(err, &parseErr) {
		return KindParse
	}
	return KindIO
}

// Failure records one date that could not be fully landed.
type Failure struct {
	Date db.Date
	Kind Kind
	Err  error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s [%s]: %s", f.Date, f.Kind, f.Err.Error())
}

// Result summarizes a crawl run.
type Result struct {
	Files    int // landed files, one per date
	Rows     int // flat records across all landed files
	Failures []Failure
}

// Crawler fetches stats and lands them as CSV files.
type Crawler struct {
	api   API
	store storage.Storage
}

// New creates a Crawler.
func New(api API, store storage.Storage) *Crawler {
	return &Crawler{api: api, store: store}
}

// date lands a single date: all of its games' skater rows as one CSV file.
// A date with no games lands a header-only file.
func (c *Crawler) date(ctx context.Context, date db.Date, games []nhl.ScheduleGame) (int, error) {
	var rows []db.SkaterRow
	for _, g := range games {
		box, err := c.api.Boxscore(ctx, g.GamePk)
		if err != nil {
			return 0, errors.Annotate(err, "failed to fetch boxscore for game %d", g.GamePk)
		}
		rows = append(rows, box.SkaterRows(g.GamePk, date)...)
	}
	var buf bytes.Buffer
	if err := db.WriteCSV(&buf, rows); err != nil {
		return 0, errors.Annotate(err, "failed to serialize rows for %s", date)
	}
	key := storage.Key{Date: date}
	if err := c.store.Put(ctx, key, buf.Bytes()); err != nil {
		return 0, errors.Annotate(err, "failed to store '%s'", key.Name())
	}
	logging.Infof(ctx, "landed %s: %d game(s), %d row(s)", key.Name(), len(games), len(rows))
	return len(rows), nil
}

// Crawl processes every date in [start, end] inclusive, ascending. It
// returns an error only when the date range is invalid or the schedule
// itself cannot be fetched; per-date failures are collected in the Result
// and do not stop the run.
func (c *Crawler) Crawl(ctx context.Context, start, end db.Date) (*Result, error) {
	if start.IsZero() || end.IsZero() {
		return nil, errors.Reason("start and end dates are required")
	}
	if end.Before(start) {
		return nil, errors.Reason("end date %s is before start date %s", end, start)
	}
	dates, err := c.api.Schedule(ctx, start, end)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch schedule %s..%s", start, end)
	}
	// The schedule lists only dates with games; every date in the range
	// still lands a file. A schedule entry outside the requested range is
	// ignored, so the landed files always match the request.
	byDate := make(map[db.Date][]nhl.ScheduleGame)
	for _, d := range dates {
		if !d.Date.InRange(start, end) {
			logging.Warningf(ctx, "schedule date %s is outside %s..%s, skipping",
				d.Date, start, end)
			continue
		}
		byDate[d.Date] = d.Games
	}

	var res Result
	for date := start; !date.After(end); date = date.Next() {
		rows, err := c.date(ctx, date, byDate[date])
		if err != nil {
			f := Failure{Date: date, Kind: classify(err), Err: err}
			logging.Warningf(ctx, "date failed, continuing: %s", f)
			res.Failures = append(res.Failures, f)
			continue
		}
		res.Files++
		res.Rows += rows
	}
	logging.Infof(ctx, "crawl %s..%s complete: %d file(s), %d row(s), %d failure(s)",
		start, end, res.Files, res.Rows, len(res.Failures))
	return &res, nil
}
