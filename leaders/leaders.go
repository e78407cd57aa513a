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

// Package leaders computes per-player totals and the per-team points leader
// from raw skater rows. It is the in-process mirror of the SQL models in
// sql/models/, and is what the pipeline tests verify aggregates against.
package leaders

import (
	"sort"

	"github.com/stockparfait/iterator"

	"github.com/pucklab/nhldata/db"
)

// PlayerTotals are aggregate counters for one player on one team.
type PlayerTotals struct {
	PlayerID int64
	Name     string
	Team     string
	Games    int
	Goals    int
	Assists  int
	Points   int // Goals + Assists summed over all games
}

type totalsKey struct {
	playerID int64
	team     string
}

// Totals aggregates raw rows into per-player totals, one entry per
// (player, team). The result is ordered by points descending; ties are
// broken by goals, then by player name. Recomputing over the same rows
// always yields the same result.
func Totals(rows []db.SkaterRow) []PlayerTotals {
	m := iterator.Reduce[db.SkaterRow, map[totalsKey]*PlayerTotals](
		iterator.FromSlice(rows), make(map[totalsKey]*PlayerTotals),
		func(r db.SkaterRow, m map[totalsKey]*PlayerTotals) map[totalsKey]*PlayerTotals {
			k := totalsKey{playerID: r.PlayerID, team: r.Team}
			t, ok := m[k]
			if !ok {
				t = &PlayerTotals{PlayerID: r.PlayerID, Name: r.Name, Team: r.Team}
				m[k] = t
			}
			t.Games++
			t.Goals += r.Goals
			t.Assists += r.Assists
			t.Points += r.Points()
			return m
		})

	totals := make([]PlayerTotals, 0, len(m))
	for _, t := range m {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		return less(totals[j], totals[i])
	})
	return totals
}

// less orders by points, then goals, then name descending-priority for
// ranking; name ascending as the final tie break.
func less(x, y PlayerTotals) bool {
	if x.Points != y.Points {
		return x.Points < y.Points
	}
	if x.Goals != y.Goals {
		return x.Goals < y.Goals
	}
	if x.Name != y.Name {
		return x.Name > y.Name
	}
	return x.PlayerID > y.PlayerID
}

// ByTeam returns the points leader of each team, ordered by team name.
func ByTeam(totals []PlayerTotals) []PlayerTotals {
	best := make(map[string]PlayerTotals)
	for _, t := range totals {
		b, ok := best[t.Team]
		if !ok || less(b, t) {
			best[t.Team] = t
		}
	}
	res := make([]PlayerTotals, 0, len(best))
	for _, t := range best {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Team < res[j].Team })
	return res
}
