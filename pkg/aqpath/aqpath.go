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

package aqpath

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// Aqpath is the interface used for the local paths of the client.
type Aqpath interface {
	WorkHome() string
	CacheDir() string
	LogDir() string
	ConfigDir() string
	DownloadDir() string
	HistoryPath() string
}

type aqpath struct {
	workHome     string
	workHomeMode fs.FileMode
	cacheDir     string
	logDir       string
	configDir    string
	downloadDir  string
}

// Option is a functional option for configuring the aqpath.
type Option func(d *aqpath)

// WithWorkHome set the workhome directory.
func WithWorkHome(dir string) Option {
	return func(d *aqpath) {
		d.workHome = dir
	}
}

// WithWorkHomeMode sets the workhome directory mode.
func WithWorkHomeMode(mode fs.FileMode) Option {
	return func(d *aqpath) {
		d.workHomeMode = mode
	}
}

// WithCacheDir set the cache directory.
func WithCacheDir(dir string) Option {
	return func(d *aqpath) {
		d.cacheDir = dir
	}
}

// WithLogDir set the log directory.
func WithLogDir(dir string) Option {
	return func(d *aqpath) {
		d.logDir = dir
	}
}

// WithDownloadDir set the directory of downloaded results.
func WithDownloadDir(dir string) Option {
	return func(d *aqpath) {
		d.downloadDir = dir
	}
}

// New creates the client directories and returns their paths. Directories
// not set by options are derived from the work home.
func New(options ...Option) (Aqpath, error) {
	d := &aqpath{
		workHome:     DefaultWorkHome,
		workHomeMode: DefaultWorkHomeMode,
		cacheDir:     DefaultCacheDir,
	}

	for _, opt := range options {
		opt(d)
	}

	if d.logDir == "" {
		d.logDir = filepath.Join(d.workHome, "logs")
	}
	if d.downloadDir == "" {
		d.downloadDir = filepath.Join(d.workHome, "downloads")
	}
	d.configDir = filepath.Join(d.workHome, "config")

	var result *multierror.Error
	if err := os.MkdirAll(d.workHome, d.workHomeMode); err != nil {
		result = multierror.Append(result, err)
	}

	for _, dir := range []string{d.cacheDir, d.logDir, d.configDir, d.downloadDir} {
		if err := os.MkdirAll(dir, fs.FileMode(0700)); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *aqpath) WorkHome() string {
	return d.workHome
}

func (d *aqpath) CacheDir() string {
	return d.cacheDir
}

func (d *aqpath) LogDir() string {
	return d.logDir
}

func (d *aqpath) ConfigDir() string {
	return d.configDir
}

func (d *aqpath) DownloadDir() string {
	return d.downloadDir
}

// HistoryPath is the csv file recording submitted jobs.
func (d *aqpath) HistoryPath() string {
	return filepath.Join(d.workHome, "jobs.csv")
}

// DefaultConfigDir holds the configuration files of the client.
var DefaultConfigDir = filepath.Join(DefaultWorkHome, "config")
