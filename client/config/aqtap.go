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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/astroquery/astroquery-go/client/tap"
	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/adql"
	"github.com/astroquery/astroquery-go/pkg/query"
	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

// BaseOptions are shared by every command.
type BaseOptions struct {
	// Console logs to stderr instead of files.
	Console bool `yaml:"console" mapstructure:"console"`

	// Verbose enables debug logs.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// TapOption holds all the runtime config information of aqtap.
type TapOption struct {
	BaseOptions `yaml:",inline" mapstructure:",squash"`

	// Service is a well known service name or a TAP endpoint url.
	Service string `yaml:"service,omitempty" mapstructure:"service,omitempty"`

	// Username of basic authorization or login.
	Username string `yaml:"username,omitempty" mapstructure:"username,omitempty"`

	// Password of basic authorization or login, read from the keyring when empty.
	Password string `yaml:"password,omitempty" mapstructure:"password,omitempty"`

	// BasicAuth sends the credentials with every request instead of logging in.
	BasicAuth bool `yaml:"basicAuth,omitempty" mapstructure:"basicAuth,omitempty"`

	// Query is the ADQL text.
	Query string `yaml:"query,omitempty" mapstructure:"query,omitempty"`

	// QueryFile holds the ADQL text.
	QueryFile string `yaml:"queryFile,omitempty" mapstructure:"queryFile,omitempty"`

	// Format is the result format.
	Format string `yaml:"format,omitempty" mapstructure:"format,omitempty"`

	// MaxRec limits the number of rows.
	MaxRec int `yaml:"maxRec,omitempty" mapstructure:"maxRec,omitempty"`

	// Async runs queries as UWS jobs.
	Async bool `yaml:"async,omitempty" mapstructure:"async,omitempty"`

	// Describe are numeric result columns summarized after a query.
	Describe []string `yaml:"describe,omitempty" mapstructure:"describe,omitempty"`

	// Uploads are local tables given as name=path.
	Uploads []string `yaml:"uploads,omitempty" mapstructure:"uploads,omitempty"`

	// JobIDs are the jobs of job sub commands.
	JobIDs []string `yaml:"-" mapstructure:"-"`

	// Phases filters listed jobs.
	Phases []string `yaml:"phases,omitempty" mapstructure:"phases,omitempty"`

	// Last limits listed jobs.
	Last int `yaml:"last,omitempty" mapstructure:"last,omitempty"`

	// All lists the history of every service.
	All bool `yaml:"-" mapstructure:"all"`

	// Clear removes the job history.
	Clear bool `yaml:"-" mapstructure:"clear"`

	// Save stores the login password in the keyring.
	Save bool `yaml:"-" mapstructure:"save"`

	// Schema filters listed tables.
	Schema string `yaml:"schema,omitempty" mapstructure:"schema,omitempty"`

	// Table is the table described by the tables command.
	Table string `yaml:"table,omitempty" mapstructure:"table,omitempty"`

	// Output is the file results are written to, stdout when empty.
	Output string `yaml:"output,omitempty" mapstructure:"output,omitempty"`

	// Endpoint is the datalink or SODA endpoint.
	Endpoint string `yaml:"endpoint,omitempty" mapstructure:"endpoint,omitempty"`

	// ID is the dataset identifier of datalink and cutout.
	ID string `yaml:"id,omitempty" mapstructure:"id,omitempty"`

	// Center is the cutout center, e.g. "10.68 41.27" or "00:42:44.3 +41:16:09".
	Center string `yaml:"center,omitempty" mapstructure:"center,omitempty"`

	// Radius is the cutout radius, e.g. "2arcmin".
	Radius string `yaml:"radius,omitempty" mapstructure:"radius,omitempty"`

	// Band is the cutout wavelength range in BandUnit, e.g. "500 600".
	Band string `yaml:"band,omitempty" mapstructure:"band,omitempty"`

	// BandUnit is the unit of Band.
	BandUnit string `yaml:"bandUnit,omitempty" mapstructure:"bandUnit,omitempty"`

	// Timeout is the timeout of a single request.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout,omitempty"`

	// RateLimit limits the requests per second.
	RateLimit rate.Limit `yaml:"rateLimit,omitempty" mapstructure:"rateLimit,omitempty"`

	// WorkHome is working directory of aqtap.
	WorkHome string `yaml:"workHome,omitempty" mapstructure:"workHome,omitempty"`

	// CacheDir is the directory of downloaded files.
	CacheDir string `yaml:"cacheDir,omitempty" mapstructure:"cacheDir,omitempty"`

	// LogDir is log directory of aqtap.
	LogDir string `yaml:"logDir,omitempty" mapstructure:"logDir,omitempty"`

	// Maximum size in megabytes of log files before rotation.
	LogMaxSize int `yaml:"logMaxSize" mapstructure:"logMaxSize"`

	// Maximum number of days to retain old log files.
	LogMaxAge int `yaml:"logMaxAge" mapstructure:"logMaxAge"`

	// Maximum number of old log files to keep.
	LogMaxBackups int `yaml:"logMaxBackups" mapstructure:"logMaxBackups"`

	// Cache is the response cache.
	Cache query.CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Transport tunes the http transport.
	Transport query.TransportOption `yaml:"transport" mapstructure:"transport"`

	// Poll is the poll policy of jobs.
	Poll uws.Policy `yaml:"poll" mapstructure:"poll"`
}

// NewAqtapConfig returns the default config of aqtap.
func NewAqtapConfig() *TapOption {
	return &TapOption{
		Service:       DefaultService,
		Format:        string(DefaultFormat),
		Timeout:       DefaultTimeout,
		RateLimit:     DefaultRateLimit,
		LogMaxSize:    DefaultLogMaxSize,
		LogMaxAge:     DefaultLogMaxAge,
		LogMaxBackups: DefaultLogMaxBackups,
		BandUnit:      table.UnitNanometre,
		Cache: query.CacheConfig{
			Enable: true,
			Size:   query.DefaultCacheSize,
			TTL:    query.DefaultCacheTTL,
		},
		Poll: uws.DefaultPolicy(),
	}
}

// Validate validates the config of cmd.
func (cfg *TapOption) Validate(cmd string) error {
	if cfg == nil {
		return fmt.Errorf("runtime config: %w", aqerrors.ErrInvalidArgument)
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout %s: %w", cfg.Timeout, aqerrors.ErrInvalidArgument)
	}

	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate limit %v: %w", cfg.RateLimit, aqerrors.ErrInvalidArgument)
	}

	switch cmd {
	case CmdDatalink, CmdCutout:
		if cfg.Endpoint == "" || cfg.ID == "" {
			return fmt.Errorf("endpoint and id are required: %w", aqerrors.ErrInvalidArgument)
		}
		return nil
	case CmdHistory:
		return nil
	}

	if _, err := tap.Resolve(cfg.Service); err != nil {
		return err
	}

	if err := cfg.Poll.Validate(); err != nil {
		return err
	}

	switch cmd {
	case CmdQuery:
		if strings.TrimSpace(cfg.Query) == "" {
			return fmt.Errorf("missing query: %w", aqerrors.ErrInvalidArgument)
		}
		if cfg.MaxRec < 0 {
			return fmt.Errorf("maxrec %d: %w", cfg.MaxRec, aqerrors.ErrInvalidArgument)
		}
		if err := validateResultFormat(cfg.Format); err != nil {
			return err
		}
		if _, err := cfg.ParseUploads(); err != nil {
			return err
		}
	case CmdResults:
		if len(cfg.JobIDs) != 1 {
			return fmt.Errorf("results need exactly one job id: %w", aqerrors.ErrInvalidArgument)
		}
		if err := validateResultFormat(cfg.Format); err != nil {
			return err
		}
	case CmdStatus, CmdWait, CmdAbort, CmdDelete:
		if len(cfg.JobIDs) == 0 {
			return fmt.Errorf("missing job id: %w", aqerrors.ErrInvalidArgument)
		}
	case CmdList:
		if cfg.Last < 0 {
			return fmt.Errorf("last %d: %w", cfg.Last, aqerrors.ErrInvalidArgument)
		}
		for _, phase := range cfg.Phases {
			if _, err := uws.ParsePhase(phase); err != nil {
				return err
			}
		}
	case CmdLogin:
		if cfg.Username == "" {
			return fmt.Errorf("missing username: %w", aqerrors.ErrInvalidArgument)
		}
	case CmdTables, CmdLogout:
	default:
		return fmt.Errorf("unknown subcommand %s: %w", cmd, aqerrors.ErrInvalidArgument)
	}

	return nil
}

// validateResultFormat rejects formats the command line cannot decode.
// Fixed-width text needs a column layout which has no flag.
func validateResultFormat(s string) error {
	format, err := table.ParseFormat(s)
	if err != nil {
		return err
	}

	if format == table.FormatASCII {
		return fmt.Errorf("format %q needs field specs: %w", s, aqerrors.ErrInvalidArgument)
	}

	return nil
}

// Convert fills the config from the arguments of cmd.
func (cfg *TapOption) Convert(cmd string, args []string) error {
	if cfg == nil {
		return fmt.Errorf("runtime config: %w", aqerrors.ErrInvalidArgument)
	}

	switch cmd {
	case CmdQuery:
		if err := cfg.convertQuery(args); err != nil {
			return err
		}
	case CmdStatus, CmdWait, CmdAbort, CmdDelete, CmdResults:
		cfg.JobIDs = append(cfg.JobIDs, args...)
	case CmdTables:
		if cfg.Schema == "" && len(args) > 0 {
			cfg.Schema = args[0]
		}
	case CmdDatalink:
		if cfg.Endpoint == "" && len(args) > 0 {
			cfg.Endpoint, args = args[0], args[1:]
		}
		if cfg.ID == "" && len(args) > 0 {
			cfg.ID = args[0]
		}
	case CmdCutout:
		if cfg.ID == "" && len(args) > 0 {
			cfg.ID = args[0]
		}
	}

	if cfg.Output != "" {
		output, err := filepath.Abs(cfg.Output)
		if err != nil {
			return fmt.Errorf("get absolute path for %s: %w", cfg.Output, err)
		}
		cfg.Output = output
	}

	return nil
}

func (cfg *TapOption) convertQuery(args []string) error {
	if cfg.Query == "" && len(args) > 0 {
		cfg.Query = strings.Join(args, " ")
	}

	if cfg.Query == "" && cfg.QueryFile != "" {
		data, err := os.ReadFile(cfg.QueryFile)
		if err != nil {
			return fmt.Errorf("read query file %s: %w", cfg.QueryFile, err)
		}
		cfg.Query = string(data)
	}

	return nil
}

// UploadFile is a local table given as name=path.
type UploadFile struct {
	Name string
	Path string
}

// ParseUploads parses the uploads given as name=path.
func (cfg *TapOption) ParseUploads() ([]UploadFile, error) {
	var uploads []UploadFile
	for _, u := range cfg.Uploads {
		name, path, ok := strings.Cut(u, "=")
		if !ok || !adql.ValidIdentifier(name) || path == "" {
			return nil, fmt.Errorf("upload %q, expected name=path: %w", u, aqerrors.ErrInvalidArgument)
		}

		uploads = append(uploads, UploadFile{Name: name, Path: path})
	}

	return uploads, nil
}

// Region parses the cutout region and band.
func (cfg *TapOption) Region() (*adql.Circle, *adql.Interval, error) {
	var (
		circle *adql.Circle
		band   *adql.Interval
	)

	if cfg.Center != "" || cfg.Radius != "" {
		center, err := adql.ParseCoordinate(cfg.Center)
		if err != nil {
			return nil, nil, err
		}

		radius, err := adql.ParseAngle(cfg.Radius)
		if err != nil {
			return nil, nil, err
		}

		circle = &adql.Circle{Center: center, Radius: radius}
	}

	if cfg.Band != "" {
		fields := strings.Fields(strings.ReplaceAll(cfg.Band, ",", " "))
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("band %q, expected min max: %w", cfg.Band, aqerrors.ErrInvalidArgument)
		}

		var lo, hi float64
		if _, err := fmt.Sscan(fields[0], &lo); err != nil {
			return nil, nil, fmt.Errorf("band min %q: %w", fields[0], aqerrors.ErrInvalidArgument)
		}
		if _, err := fmt.Sscan(fields[1], &hi); err != nil {
			return nil, nil, fmt.Errorf("band max %q: %w", fields[1], aqerrors.ErrInvalidArgument)
		}

		interval, err := adql.Band(lo, hi, cfg.BandUnit)
		if err != nil {
			return nil, nil, err
		}
		band = &interval
	}

	return circle, band, nil
}

func (cfg *TapOption) String() string {
	redacted := *cfg
	if redacted.Password != "" {
		redacted.Password = "******"
	}

	data, _ := json.Marshal(redacted)
	return string(data)
}
