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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"

	"github.com/pucklab/nhldata/db"

	. "github.com/smartystreets/goconvey/convey"
)

const testSchedule = `{
  "dates": [{"date": "2022-01-09", "games": [{"gamePk": 1}]}]
}`

const testBoxscore = `{
  "teams": {
    "home": {
      "team": {"name": "Canucks"},
      "players": {
        "ID10": {
          "person": {"id": 10, "fullName": "A Home"},
          "stats": {"skaterStats": {"assists": 1, "goals": 2}}
        }
      }
    },
    "away": {"team": {"name": "Kraken"}, "players": {}}
  }
}`

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_crawl_app")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		Convey("valid flags", func() {
			flags, err := parseFlags([]string{
				"-start-date", "2022-01-09", "-end-date", "2022-01-10",
				"-config", "path/to/config", "-log-level", "warning"})
			So(err, ShouldBeNil)
			So(flags.StartDate, ShouldResemble, db.NewDate(2022, 1, 9))
			So(flags.EndDate, ShouldResemble, db.NewDate(2022, 1, 10))
			So(flags.ConfigDir, ShouldEqual, "path/to/config")
			So(flags.LogLevel, ShouldEqual, logging.Warning)
		})

		Convey("missing dates", func() {
			_, err := parseFlags([]string{"-start-date", "2022-01-09"})
			So(err, ShouldNotBeNil)
		})

		Convey("malformed date", func() {
			_, err := parseFlags([]string{
				"-start-date", "Jan 9", "-end-date", "2022-01-10"})
			So(err, ShouldNotBeNil)
		})

		Convey("reversed range", func() {
			_, err := parseFlags([]string{
				"-start-date", "2022-01-10", "-end-date", "2022-01-09"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("parseConfig", t, func() {
		Convey("defaults when config.toml is absent", func() {
			dir := filepath.Join(tmpdir, "noconfig")
			So(os.MkdirAll(dir, 0755), ShouldBeNil)
			c, err := parseConfig(dir)
			So(err, ShouldBeNil)
			So(c.Bucket, ShouldEqual, "output")
			So(c.DataDir, ShouldEqual, filepath.Join(dir, "s3_data"))
			So(c.S3.Endpoint, ShouldEqual, "")
		})

		Convey("explicit values", func() {
			dir := filepath.Join(tmpdir, "config")
			So(os.MkdirAll(dir, 0755), ShouldBeNil)
			So(testutil.WriteFile(filepath.Join(dir, "config.toml"), `
bucket = "nhl-landed"
data_dir = "/data"
base_url = "http://localhost:9999/api/v1"

[s3]
endpoint = "http://localhost:9000"
region = "us-east-1"
`), ShouldBeNil)
			c, err := parseConfig(dir)
			So(err, ShouldBeNil)
			So(c.Bucket, ShouldEqual, "nhl-landed")
			So(c.DataDir, ShouldEqual, "/data")
			So(c.BaseURL, ShouldEqual, "http://localhost:9999/api/v1")
			So(c.S3.Endpoint, ShouldEqual, "http://localhost:9000")
			So(c.S3.Region, ShouldEqual, "us-east-1")
		})
	})

	Convey("run lands files end to end", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		server.ResponseBody = []string{testSchedule, testBoxscore}

		dir := filepath.Join(tmpdir, "run")
		So(os.MkdirAll(dir, 0755), ShouldBeNil)
		So(testutil.WriteFile(filepath.Join(dir, "config.toml"), fmt.Sprintf(`
base_url = "%s/api/v1"
`, server.URL())), ShouldBeNil)

		ctx := fetch.UseClient(context.Background(), server.Client())
		flags, err := parseFlags([]string{
			"-start-date", "2022-01-09", "-end-date", "2022-01-09", "-config", dir})
		So(err, ShouldBeNil)
		So(run(ctx, flags), ShouldBeNil)

		f, err := os.Open(filepath.Join(dir, "s3_data", "output", "20220109.csv"))
		So(err, ShouldBeNil)
		defer f.Close()
		rows, err := db.ReadCSV(f)
		So(err, ShouldBeNil)
		So(rows, ShouldResemble, []db.SkaterRow{
			{GameID: 1, GameDate: db.NewDate(2022, 1, 9), PlayerID: 10,
				Name: "A Home", Team: "Canucks", Side: db.SideHome,
				Goals: 2, Assists: 1},
		})
	})
}
