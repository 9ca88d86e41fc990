/*
 *     Copyright 2024 The Dragonfly Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"bytes"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/datalink"
	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

func init() {
	color.NoColor = true
}

func newTestTable() *table.Table {
	tbl := table.New("result",
		table.Column{Name: "source_id", Datatype: "long"},
		table.Column{Name: "ra", Datatype: "double", Unit: "deg"},
		table.Column{Name: "name", Datatype: "char"},
	)
	tbl.Rows = [][]any{
		{int64(4295806720), 44.996, "alpha"},
		{int64(34361129088), 45.004, nil},
	}

	return tbl
}

func TestRenderTable(t *testing.T) {
	assert := assert.New(t)
	buf := &bytes.Buffer{}
	renderTable(buf, newTestTable())

	out := buf.String()
	assert.Contains(out, "ra [deg]")
	assert.Contains(out, "source_id")
	assert.Contains(out, "alpha")
	assert.Contains(out, "2 rows")
}

func TestWriteTable(t *testing.T) {
	tests := []struct {
		name   string
		output string
		expect func(t *testing.T, stdout string, output string, err error)
	}{
		{
			name: "render to stdout",
			expect: func(t *testing.T, stdout string, output string, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Contains(stdout, "2 rows")
			},
		},
		{
			name:   "write csv file",
			output: "out/result.csv",
			expect: func(t *testing.T, stdout string, output string, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Contains(stdout, "2 rows written to")

				data, err := os.ReadFile(output)
				assert.NoError(err)
				assert.Equal("source_id,ra,name\n4295806720,44.996,alpha\n34361129088,45.004,\n", string(data))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			output := tc.output
			if output != "" {
				output = filepath.Join(t.TempDir(), output)
			}

			buf := &bytes.Buffer{}
			err := writeTable(buf, newTestTable(), output)
			tc.expect(t, buf.String(), output, err)
		})
	}
}

func TestFormatPhase(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("COMPLETED", formatPhase(uws.PhaseCompleted))
	assert.Equal("ERROR", formatPhase(uws.PhaseError))
	assert.Equal("EXECUTING", formatPhase(uws.PhaseExecuting))
	assert.Equal("PENDING", formatPhase(uws.PhasePending))
}

func TestFormatHelpers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", formatTime(time.Time{}))
	assert.Equal("", formatSize(0))
	assert.Equal("1.5kB", formatSize(1500))
	assert.Equal("first ...", firstLine(" first\nsecond "))
	assert.Equal("ivo_cadc.nrc.ca_HST_ib1q08030.fits", cutoutFileName("ivo://cadc.nrc.ca/HST?ib1q08030"))
}

func TestRenderHelpers(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	renderJobs(buf, []uws.JobRef{{ID: "1650", Phase: uws.PhaseCompleted, RunID: "aq-1"}})
	assert.Contains(buf.String(), "1650")
	assert.Contains(buf.String(), "1 jobs")

	buf.Reset()
	renderJob(buf, &uws.Job{
		ID:           "1650",
		Phase:        uws.PhaseError,
		ErrorSummary: &uws.ErrorSummary{Message: "syntax error"},
		Parameters:   map[string]string{"QUERY": "SELECT 1"},
	})
	assert.Contains(buf.String(), "syntax error")
	assert.Contains(buf.String(), "SELECT 1")
	assert.NotContains(buf.String(), "Started:")

	buf.Reset()
	renderLinks(buf, &datalink.Links{
		Links: []datalink.Link{
			{ID: "ivo://x?1", Semantics: "#this", AccessURL: "https://example.org/x.fits", ContentLength: 2000},
			{ID: "ivo://x?1", Semantics: "#cutout", ServiceDef: "soda"},
		},
		Services: []table.ServiceDescriptor{{ID: "soda", AccessURL: "https://example.org/soda"}},
	})
	assert.Contains(buf.String(), "https://example.org/x.fits")
	assert.Contains(buf.String(), "service soda (https://example.org/soda)")
	assert.Contains(buf.String(), "2 links")
}

func TestSession(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	endpoint, _ := url.Parse("https://gea.esac.esa.int/tap-server/tap")

	jar, err := cookiejar.New(nil)
	assert.NoError(err)
	jar.SetCookies(endpoint, []*http.Cookie{{Name: "JSESSIONID", Value: "abc", Path: "/tap-server"}})

	s := newSession(dir, jar)
	assert.NoError(s.Save(config.DefaultService))
	assert.FileExists(filepath.Join(dir, sessionFileName))

	restored, err := cookiejar.New(nil)
	assert.NoError(err)
	assert.NoError(newSession(dir, restored).Load(config.DefaultService))

	cookies := restored.Cookies(endpoint)
	if assert.Len(cookies, 1) {
		assert.Equal("JSESSIONID", cookies[0].Name)
		assert.Equal("abc", cookies[0].Value)
	}

	assert.NoError(s.Remove(config.DefaultService))
	empty, err := cookiejar.New(nil)
	assert.NoError(err)
	assert.NoError(newSession(dir, empty).Load(config.DefaultService))
	assert.Empty(empty.Cookies(endpoint))

	assert.Error(s.Load("no-such-service"))
}

func TestDescribeColumns(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	assert.NoError(describeColumns(buf, newTestTable(), nil))
	assert.Empty(buf.String())

	assert.NoError(describeColumns(buf, newTestTable(), []string{"ra"}))
	assert.Contains(buf.String(), "45")
	assert.Contains(buf.String(), "deg")

	assert.Error(describeColumns(buf, newTestTable(), []string{"missing"}))
}
