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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zalando/go-keyring"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

func TestTapOption_Validate(t *testing.T) {
	tests := []struct {
		name   string
		cmd    string
		config func(cfg *TapOption)
		expect func(t *testing.T, err error)
	}{
		{
			name:   "query",
			cmd:    CmdQuery,
			config: func(cfg *TapOption) { cfg.Query = "SELECT 1" },
			expect: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:   "missing query",
			cmd:    CmdQuery,
			config: func(cfg *TapOption) {},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name: "unknown format",
			cmd:  CmdQuery,
			config: func(cfg *TapOption) {
				cfg.Query = "SELECT 1"
				cfg.Format = "parquet"
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name: "ascii format",
			cmd:  CmdQuery,
			config: func(cfg *TapOption) {
				cfg.Query = "SELECT 1"
				cfg.Format = "ascii"
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name: "ascii results",
			cmd:  CmdResults,
			config: func(cfg *TapOption) {
				cfg.JobIDs = []string{"1650"}
				cfg.Format = "text/plain"
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name: "invalid upload",
			cmd:  CmdQuery,
			config: func(cfg *TapOption) {
				cfg.Query = "SELECT 1"
				cfg.Uploads = []string{"mine.xml"}
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name:   "unknown service",
			cmd:    CmdTables,
			config: func(cfg *TapOption) { cfg.Service = "sdss" },
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name:   "strict poll interval",
			cmd:    CmdTables,
			config: func(cfg *TapOption) { cfg.Poll.Strict, cfg.Poll.SlowInterval = true, 5*time.Second },
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name:   "missing job id",
			cmd:    CmdWait,
			config: func(cfg *TapOption) {},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name:   "unknown phase",
			cmd:    CmdList,
			config: func(cfg *TapOption) { cfg.Phases = []string{"RUNNING"} },
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name:   "cutout without endpoint",
			cmd:    CmdCutout,
			config: func(cfg *TapOption) { cfg.ID = "ivo://example.org/1" },
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
		{
			name:   "unknown subcommand",
			cmd:    "submit",
			config: func(cfg *TapOption) {},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, aqerrors.ErrInvalidArgument)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewAqtapConfig()
			tc.config(cfg)
			tc.expect(t, cfg.Validate(tc.cmd))
		})
	}
}

func TestTapOption_Convert(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	queryFile := filepath.Join(dir, "query.adql")
	assert.NoError(os.WriteFile(queryFile, []byte("SELECT TOP 1 * FROM t"), 0600))

	cfg := NewAqtapConfig()
	assert.NoError(cfg.Convert(CmdQuery, []string{"SELECT", "1"}))
	assert.Equal("SELECT 1", cfg.Query)

	cfg = NewAqtapConfig()
	cfg.QueryFile = queryFile
	cfg.Output = "result.xml"
	assert.NoError(cfg.Convert(CmdQuery, nil))
	assert.Equal("SELECT TOP 1 * FROM t", cfg.Query)
	assert.True(filepath.IsAbs(cfg.Output))

	cfg = NewAqtapConfig()
	cfg.QueryFile = filepath.Join(dir, "missing.adql")
	assert.Error(cfg.Convert(CmdQuery, nil))

	cfg = NewAqtapConfig()
	assert.NoError(cfg.Convert(CmdDelete, []string{"1", "2"}))
	assert.Equal([]string{"1", "2"}, cfg.JobIDs)
	assert.NoError(cfg.Validate(CmdDelete))
	assert.ErrorIs(cfg.Validate(CmdResults), aqerrors.ErrInvalidArgument)

	cfg = NewAqtapConfig()
	assert.NoError(cfg.Convert(CmdDatalink, []string{"https://example.org/datalink", "ivo://example.org/1"}))
	assert.Equal("https://example.org/datalink", cfg.Endpoint)
	assert.Equal("ivo://example.org/1", cfg.ID)
	assert.NoError(cfg.Validate(CmdDatalink))

	cfg = NewAqtapConfig()
	cfg.Endpoint = "https://example.org/soda"
	assert.NoError(cfg.Convert(CmdCutout, []string{"ivo://example.org/2"}))
	assert.Equal("ivo://example.org/2", cfg.ID)
}

func TestTapOption_Region(t *testing.T) {
	assert := assert.New(t)
	cfg := NewAqtapConfig()
	cfg.Center = "10.5 -20"
	cfg.Radius = "30arcmin"
	cfg.Band = "500, 600"

	circle, band, err := cfg.Region()
	assert.NoError(err)
	assert.Equal(10.5, circle.Center.RA)
	assert.InDelta(0.5, circle.Radius.Degrees(), 1e-12)
	assert.InDelta(5e-7, band.Min, 1e-18)
	assert.InDelta(6e-7, band.Max, 1e-18)

	cfg.Band = "600"
	_, _, err = cfg.Region()
	assert.ErrorIs(err, aqerrors.ErrInvalidArgument)

	cfg = NewAqtapConfig()
	circle, band, err = cfg.Region()
	assert.NoError(err)
	assert.Nil(circle)
	assert.Nil(band)
}

func TestTapOption_String(t *testing.T) {
	cfg := NewAqtapConfig()
	cfg.Password = "secret"
	assert.NotContains(t, cfg.String(), "secret")
	assert.Equal(t, "secret", cfg.Password)
}

func TestCredentials(t *testing.T) {
	keyring.MockInit()
	assert := assert.New(t)

	cfg := NewAqtapConfig()
	username, password, err := cfg.Credentials()
	assert.NoError(err)
	assert.Empty(username)
	assert.Empty(password)

	cfg.Username = "alice"
	_, _, err = cfg.Credentials()
	assert.ErrorIs(err, aqerrors.ErrNotFound)

	assert.NoError(SavePassword(cfg.Service, "alice", "secret"))
	username, password, err = cfg.Credentials()
	assert.NoError(err)
	assert.Equal("alice", username)
	assert.Equal("secret", password)

	cfg.Password = "override"
	_, password, err = cfg.Credentials()
	assert.NoError(err)
	assert.Equal("override", password)

	assert.NoError(DeletePassword(cfg.Service, "alice"))
	assert.NoError(DeletePassword(cfg.Service, "alice"))
	_, err = LoadPassword(cfg.Service, "alice")
	assert.ErrorIs(err, aqerrors.ErrNotFound)

	assert.ErrorIs(SavePassword("", "alice", "secret"), aqerrors.ErrInvalidArgument)
}
