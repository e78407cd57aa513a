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

package db

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/stockparfait/errors"
)

// Header is the stable column order of a landed CSV file. The bulk loader
// and the SQL models rely on these names.
var Header = []string{
	"game_id",
	"game_date",
	"player_id",
	"player_name",
	"team",
	"side",
	"goals",
	"assists",
}

// CSV renders the row in the Header column order.
func (r SkaterRow) CSV() []string {
	return []string{
		strconv.FormatInt(r.GameID, 10),
		r.GameDate.String(),
		strconv.FormatInt(r.PlayerID, 10),
		r.Name,
		r.Team,
		r.Side,
		strconv.Itoa(r.Goals),
		strconv.Itoa(r.Assists),
	}
}

// WriteCSV writes rows to w with a header row, comma-delimited. An empty
// rows slice produces a header-only file.
func WriteCSV(w io.Writer, rows []SkaterRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Annotate(err, "failed to write header")
	}
	for i, r := range rows {
		if err := cw.Write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush rows")
	}
	return nil
}

// mapColumns maps the i'th header column to the j'th Header field, or -1 for
// columns we don't recognize. This keeps the reader working when a producer
// reorders or appends columns.
func mapColumns(header []string) ([]int, error) {
	m := make([]int, len(header))
	seen := make(map[int]bool)
	for i, h := range header {
		m[i] = -1
		for j, n := range Header {
			if h == n {
				if seen[j] {
					return nil, errors.Reason("duplicate column '%s'", h)
				}
				m[i] = j
				seen[j] = true
				break
			}
		}
	}
	for j, n := range Header {
		if !seen[j] {
			return nil, errors.Reason("missing column '%s'", n)
		}
	}
	return m, nil
}

func (r *SkaterRow) fromCSV(row []string, colMap []int) error {
	var err error
	for i, v := range row {
		if i >= len(colMap) {
			break
		}
		switch colMap[i] {
		case 0:
			r.GameID, err = strconv.ParseInt(v, 10, 64)
		case 1:
			r.GameDate, err = NewDateFromString(v)
		case 2:
			r.PlayerID, err = strconv.ParseInt(v, 10, 64)
		case 3:
			r.Name = v
		case 4:
			r.Team = v
		case 5:
			r.Side = v
		case 6:
			r.Goals, err = strconv.Atoi(v)
		case 7:
			r.Assists, err = strconv.Atoi(v)
		}
		if err != nil {
			return errors.Annotate(err, "failed to parse column '%s'", Header[colMap[i]])
		}
	}
	return nil
}

// ReadCSV reads back a landed file written by WriteCSV. The first row must
// be a header containing all of the Header columns, in any order.
func ReadCSV(r io.Reader) ([]SkaterRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Reason("empty CSV: missing header row")
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to read CSV header")
	}
	colMap, err := mapColumns(header)
	if err != nil {
		return nil, errors.Annotate(err, "unexpected CSV header")
	}
	var rows []SkaterRow
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Annotate(err, "failed to read CSV row %d", i+1)
		}
		var row SkaterRow
		if err := row.fromCSV(rec, colMap); err != nil {
			return nil, errors.Annotate(err, "failed to parse CSV row %d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
