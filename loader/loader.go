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

// Package loader bulk-loads landed CSV files into the player_game_stats
// table in Postgres. Each file is loaded in its own transaction: the rows of
// that file's date are deleted first, so re-landing and re-loading a date
// range leaves the table identical.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/pucklab/nhldata/db"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS player_game_stats (
	game_id     BIGINT NOT NULL,
	game_date   DATE   NOT NULL,
	player_id   BIGINT NOT NULL,
	player_name TEXT   NOT NULL,
	team        TEXT   NOT NULL,
	side        TEXT   NOT NULL,
	goals       INT    NOT NULL,
	assists     INT    NOT NULL
);
CREATE INDEX IF NOT EXISTS player_game_stats_game_date
	ON player_game_stats (game_date);
`

// EnsureSchema creates the raw table if it does not exist yet.
func EnsureSchema(ctx context.Context, sqlDB *sql.DB) error {
	if _, err := sqlDB.ExecContext(ctx, createSchema); err != nil {
		return errors.Annotate(err, "failed to create table %s", db.Table)
	}
	return nil
}

// dateFromName recovers the batch date from a landed file name like
// "20220109.csv".
func dateFromName(name string) (db.Date, error) {
	base := strings.TrimSuffix(filepath.Base(name), ".csv")
	date, err := db.NewDateFromString(base)
	if err != nil {
		return db.Date{}, errors.Annotate(err, "file name '%s' is not a landed batch", name)
	}
	return date, nil
}

// landedFiles lists the *.csv files of dir in ascending name order, which is
// ascending date order for landed files.
func landedFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.Annotate(err, "failed to list '%s'", dir)
	}
	if len(files) == 0 {
		return nil, errors.Reason("no landed files in '%s'", dir)
	}
	sort.Strings(files)
	return files, nil
}

// loadFile replaces the file's date in the table with the file's rows.
func loadFile(ctx context.Context, tx *sql.Tx, fileName string) (int, error) {
	date, err := dateFromName(fileName)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(fileName)
	if err != nil {
		return 0, errors.Annotate(err, "failed to open '%s'", fileName)
	}
	defer f.Close()
	rows, err := db.ReadCSV(f)
	if err != nil {
		return 0, errors.Annotate(err, "failed to read '%s'", fileName)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM player_game_stats WHERE game_date = $1", date.String()); err != nil {
		return 0, errors.Annotate(err, "failed to delete old rows for %s", date)
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(db.Table, db.Header...))
	if err != nil {
		return 0, errors.Annotate(err, "failed to prepare bulk copy")
	}
	defer stmt.Close()
	for _, r := range rows {
		_, err := stmt.ExecContext(ctx, r.GameID, r.GameDate.String(), r.PlayerID,
			r.Name, r.Team, r.Side, r.Goals, r.Assists)
		if err != nil {
			return 0, errors.Annotate(err, "failed to copy row for player %d", r.PlayerID)
		}
	}
	// An Exec with no arguments flushes the copy.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, errors.Annotate(err, "failed to flush bulk copy")
	}
	return len(rows), nil
}

// FileStats reports the outcome of loading one landed file.
type FileStats struct {
	File string
	Rows int
}

// LoadDir bulk-loads every landed file in dir. It stops at the first
// failure; files loaded before the failure stay committed.
func LoadDir(ctx context.Context, sqlDB *sql.DB, dir string) ([]FileStats, error) {
	files, err := landedFiles(dir)
	if err != nil {
		return nil, err
	}
	var stats []FileStats
	for _, fileName := range files {
		tx, err := sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return stats, errors.Annotate(err, "failed to begin transaction")
		}
		rows, err := loadFile(ctx, tx, fileName)
		if err != nil {
			tx.Rollback()
			return stats, errors.Annotate(err, "failed to load '%s'", fileName)
		}
		if err := tx.Commit(); err != nil {
			return stats, errors.Annotate(err, "failed to commit '%s'", fileName)
		}
		logging.Infof(ctx, "loaded %s: %d row(s)", filepath.Base(fileName), rows)
		stats = append(stats, FileStats{File: filepath.Base(fileName), Rows: rows})
	}
	return stats, nil
}

// CopyStatements generates the server-side load batch for the landed files
// in dir: one COPY per file, consuming the CSV with its header row. The
// paths are absolute, as the server resolves them.
func CopyStatements(dir string) ([]string, error) {
	files, err := landedFiles(dir)
	if err != nil {
		return nil, err
	}
	stmts := make([]string, 0, len(files))
	for _, fileName := range files {
		abs, err := filepath.Abs(fileName)
		if err != nil {
			return nil, errors.Annotate(err, "failed to resolve '%s'", fileName)
		}
		stmts = append(stmts, fmt.Sprintf(
			"COPY %s (%s) FROM '%s' WITH (FORMAT csv, HEADER true);",
			db.Table, strings.Join(db.Header, ", "), abs))
	}
	return stmts, nil
}
