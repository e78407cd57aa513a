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

// Package nhl is the client for the public NHL stats API. It fetches the
// game schedule for a date range and per-game boxscores, and flattens the
// nested boxscore sheets into db.SkaterRow records.
package nhl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"

	"github.com/pucklab/nhldata/db"
)

// URL is the default base URL of the stats API. It may be overwritten in
// tests before creating a new client.
var URL = "https://statsapi.web.nhl.com/api/v1"

// RemoteError indicates that the remote service could not be reached or
// responded with a non-success status.
type RemoteError struct {
	URL    string
	Status int // 0 when the request never completed
	Err    error
}

func (e RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote service error: status %d for %s", e.Status, e.URL)
	}
	return fmt.Sprintf("remote service error for %s: %v", e.URL, e.Err)
}

func (e RemoteError) Unwrap() error { return e.Err }

// ParseError indicates that a response body could not be decoded into the
// expected schema.
type ParseError struct {
	URL string
	Err error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// Client queries the NHL stats API.
type Client struct {
	baseURL string
}

// NewClient creates a new client. Empty base means the default URL.
func NewClient(base string) *Client {
	if base == "" {
		base = URL
	}
	return &Client{baseURL: base}
}

// getJSON fetches uri and decodes the JSON body into v. Transport failures
// and non-2xx statuses become RemoteError, undecodable bodies ParseError.
// Retries are whatever the fetch package does by default; the pipeline adds
// none of its own.
func (c *Client) getJSON(ctx context.Context, uri string, query url.Values, v interface{}) error {
	resp, err := fetch.GetRetry(ctx, uri, query, nil)
	if err != nil {
		return RemoteError{URL: uri, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RemoteError{URL: uri, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return ParseError{URL: uri, Err: err}
	}
	return nil
}

// ScheduleGame is a single scheduled game; only the game id is of interest.
type ScheduleGame struct {
	GamePk int64 `json:"gamePk"`
}

// ScheduleDate is one date's worth of scheduled games.
type ScheduleDate struct {
	Date  db.Date        `json:"date"`
	Games []ScheduleGame `json:"games"`
}

type schedulePage struct {
	Dates []ScheduleDate `json:"dates"`
}

// Schedule fetches all games scheduled in [start, end], both inclusive. The
// API returns only the dates that have games.
func (c *Client) Schedule(ctx context.Context, start, end db.Date) ([]ScheduleDate, error) {
	uri := c.baseURL + "/schedule"
	query := make(url.Values)
	query.Set("startDate", start.String())
	query.Set("endDate", end.String())

	var page schedulePage
	if err := c.getJSON(ctx, uri, query, &page); err != nil {
		return nil, err
	}
	games := 0
	for _, d := range page.Dates {
		games += len(d.Games)
	}
	logging.Infof(ctx, "NHL: schedule %s..%s has %d game(s) on %d date(s)",
		start, end, games, len(page.Dates))
	return page.Dates, nil
}

// SkaterStats are the per-game skater counters we extract. Entries without
// skaterStats (goalies) carry no goals/assists and are skipped.
type SkaterStats struct {
	Assists int `json:"assists"`
	Goals   int `json:"goals"`
}

// PlayerSheet is one player's entry in a boxscore team sheet.
type PlayerSheet struct {
	Person struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
	} `json:"person"`
	Stats struct {
		SkaterStats *SkaterStats `json:"skaterStats"`
	} `json:"stats"`
}

// TeamSheet is one side of a boxscore.
type TeamSheet struct {
	Team struct {
		Name string `json:"name"`
	} `json:"team"`
	Players map[string]PlayerSheet `json:"players"`
}

// Boxscore is the per-game stats document.
type Boxscore struct {
	Teams struct {
		Home TeamSheet `json:"home"`
		Away TeamSheet `json:"away"`
	} `json:"teams"`
}

// Boxscore fetches the boxscore for a single game.
func (c *Client) Boxscore(ctx context.Context, gameID int64) (*Boxscore, error) {
	uri := fmt.Sprintf("%s/game/%d/boxscore", c.baseURL, gameID)
	var box Boxscore
	if err := c.getJSON(ctx, uri, nil, &box); err != nil {
		return nil, err
	}
	return &box, nil
}

// playerID prefers the person id and falls back to the map key, which looks
// like "ID8477474".
func playerID(key string, sheet PlayerSheet) int64 {
	if sheet.Person.ID != 0 {
		return sheet.Person.ID
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(key, "ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (t TeamSheet) skaterRows(gameID int64, date db.Date, side string) []db.SkaterRow {
	var rows []db.SkaterRow
	for key, sheet := range t.Players {
		if sheet.Stats.SkaterStats == nil {
			continue
		}
		rows = append(rows, db.SkaterRow{
			GameID:   gameID,
			GameDate: date,
			PlayerID: playerID(key, sheet),
			Name:     sheet.Person.FullName,
			Team:     t.Team.Name,
			Side:     side,
			Goals:    sheet.Stats.SkaterStats.Goals,
			Assists:  sheet.Stats.SkaterStats.Assists,
		})
	}
	return rows
}

// SkaterRows flattens both team sheets into flat records, home side first,
// ordered by player id within a side for deterministic output.
func (b *Boxscore) SkaterRows(gameID int64, date db.Date) []db.SkaterRow {
	var rows []db.SkaterRow
	for _, s := range []struct {
		sheet TeamSheet
		side  string
	}{
		{b.Teams.Home, db.SideHome},
		{b.Teams.Away, db.SideAway},
	} {
		side := s.sheet.skaterRows(gameID, date, s.side)
		sort.Slice(side, func(i, j int) bool { return side[i].PlayerID < side[j].PlayerID })
		rows = append(rows, side...)
	}
	return rows
}
