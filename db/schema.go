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

// Package db defines the raw data schema shared by the crawler, the landed
// CSV files and the bulk loader.
package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stockparfait/errors"
)

// Table is the raw table populated by the bulk loader and consumed by the
// SQL models.
const Table = "player_game_stats"

func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05Z",
		"20060102",
	}
	var err error
	for _, f := range formats {
		var tm time.Time
		tm, err = time.Parse(f, s)
		if err == nil {
			return tm, nil
		}
	}
	return time.Time{}, err
}

// Date records a calendar date as year, month and day. The struct is designed
// to fit into 4 bytes.
type Date struct {
	YearVal  uint16
	MonthVal uint8
	DayVal   uint8
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = &Date{}

// NewDate is the constructor for Date.
func NewDate(year uint16, month, day uint8) Date {
	return Date{year, month, day}
}

// NewDateFromTime creates a Date instance from a time.Time value in UTC.
func NewDateFromTime(t time.Time) Date {
	return Date{
		YearVal:  uint16(t.Year()),
		MonthVal: uint8(t.Month()),
		DayVal:   uint8(t.Day()),
	}
}

// NewDateFromString creates a Date instance from an ISO date string.
func NewDateFromString(s string) (Date, error) {
	t, err := parseDate(s)
	if err != nil {
		return Date{}, errors.Annotate(err, "failed to parse a Date string: '%s'", s)
	}
	return NewDateFromTime(t), nil
}

func (d Date) Year() uint16 { return d.YearVal }
func (d Date) Month() uint8 { return d.MonthVal }
func (d Date) Day() uint8   { return d.DayVal }

// String representation of the value, YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// Key is the compact YYYYMMDD form used in landed file names.
func (d Date) Key() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year(), d.Month(), d.Day())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. NOTE: unlike other methods, this
// is a pointer method.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "Date JSON must be a string")
	}
	date, err := NewDateFromString(s)
	if err != nil {
		return errors.Annotate(err, "failed to parse Date string")
	}
	*d = date
	return nil
}

// ToTime converts Date to Time in UTC.
func (d Date) ToTime() time.Time {
	return time.Date(int(d.Year()), time.Month(d.Month()), int(d.Day()), 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar date.
func (d Date) Next() Date {
	return NewDateFromTime(d.ToTime().AddDate(0, 0, 1))
}

// Before compares two Date objects for strict inequality (self < d2).
func (d Date) Before(d2 Date) bool {
	if d.Year() != d2.Year() {
		return d.Year() < d2.Year()
	}
	if d.Month() != d2.Month() {
		return d.Month() < d2.Month()
	}
	return d.Day() < d2.Day()
}

// After compares two Date objects for strict inequality, self > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// IsZero checks whether the date has a zero value.
func (d Date) IsZero() bool {
	return d.Year() == 0 && d.Month() == 0 && d.Day() == 0
}

// InRange checks if start <= self <= end. Zero start or end means no limit on
// that side.
func (d Date) InRange(start, end Date) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

// Sides of a game sheet.
const (
	SideHome = "home"
	SideAway = "away"
)

// SkaterRow is a single raw stat line: one row per (game, team, player).
// Rows are immutable once fetched; they are written to a landed file exactly
// once and never updated.
type SkaterRow struct {
	GameID   int64
	GameDate Date
	PlayerID int64
	Name     string
	Team     string
	Side     string // SideHome or SideAway
	Goals    int
	Assists  int
}

// Points scored in this game: goals + assists.
func (r SkaterRow) Points() int {
	return r.Goals + r.Assists
}
