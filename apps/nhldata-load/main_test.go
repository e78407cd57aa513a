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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stockparfait/logging"

	"github.com/pucklab/nhldata/db"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_load_app")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		Convey("valid flags", func() {
			flags, err := parseFlags([]string{
				"-landed", "path/to/landed", "-dsn", "postgres://x", "-print",
				"-log-level", "debug"})
			So(err, ShouldBeNil)
			So(flags.Landed, ShouldEqual, "path/to/landed")
			So(flags.DSN, ShouldEqual, "postgres://x")
			So(flags.Print, ShouldBeTrue)
			So(flags.LogLevel, ShouldEqual, logging.Debug)
		})

		Convey("defaults", func() {
			flags, err := parseFlags([]string{"-landed", "landed"})
			So(err, ShouldBeNil)
			So(flags.DSN, ShouldEqual, defaultDSN)
			So(flags.Print, ShouldBeFalse)
		})

		Convey("missing -landed", func() {
			_, err := parseFlags([]string{"-print"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("run with -print writes the COPY batch", t, func() {
		dir := filepath.Join(tmpdir, "landed")
		So(os.MkdirAll(dir, 0755), ShouldBeNil)
		var csv bytes.Buffer
		So(db.WriteCSV(&csv, nil), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "20220109.csv"), csv.Bytes(), 0644), ShouldBeNil)

		flags, err := parseFlags([]string{"-landed", dir, "-print"})
		So(err, ShouldBeNil)
		var out bytes.Buffer
		So(run(context.Background(), flags, &out), ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		So(lines, ShouldHaveLength, 1)
		So(lines[0], ShouldStartWith, "COPY player_game_stats (")
		So(lines[0], ShouldContainSubstring, "20220109.csv")
	})
}
