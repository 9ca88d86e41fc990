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
	"time"

	"github.com/astroquery/astroquery-go/pkg/table"
)

// aqtap sub commands.
const (
	CmdQuery    = "query"
	CmdTables   = "tables"
	CmdList     = "list"
	CmdStatus   = "status"
	CmdWait     = "wait"
	CmdAbort    = "abort"
	CmdDelete   = "delete"
	CmdResults  = "results"
	CmdHistory  = "history"
	CmdLogin    = "login"
	CmdLogout   = "logout"
	CmdDatalink = "datalink"
	CmdCutout   = "cutout"
)

const (
	// DefaultService is queried when no service is configured.
	DefaultService = "gaia"

	// DefaultFormat is the result format of queries.
	DefaultFormat = table.FormatVOTable

	// DefaultTimeout is the timeout of a single request.
	DefaultTimeout = 60 * time.Second

	// DefaultLogMaxSize is the size in megabytes of a log file before rotation.
	DefaultLogMaxSize = 40

	// DefaultLogMaxAge is the number of days old log files are kept.
	DefaultLogMaxAge = 7

	// DefaultLogMaxBackups is the number of old log files kept.
	DefaultLogMaxBackups = 10

	// DefaultRateLimit is the number of requests per second sent to a service.
	DefaultRateLimit = 5
)
