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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/datalink"
	"github.com/astroquery/astroquery-go/client/tap"
	"github.com/astroquery/astroquery-go/cmd/dependency"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
	"github.com/astroquery/astroquery-go/internal/jobstore"
	"github.com/astroquery/astroquery-go/pkg/aqpath"
	"github.com/astroquery/astroquery-go/pkg/query"
	"github.com/astroquery/astroquery-go/version"
)

var (
	aqtapConfig *config.TapOption
)

var aqtapDescription = `
aqtap is the command line client of astronomical archives speaking the IVOA
Table Access Protocol. It runs ADQL queries synchronously or as UWS jobs,
manages the jobs of a service, lists published tables and fetches Datalink
links and SODA cutouts.

A service is given by a well known name such as gaia, esasky or cadc, or by
the url of its TAP endpoint. Submitted jobs are kept in a local history so
they can be resumed after the command exits.
`

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               "aqtap <command> [flags]",
	Short:             "the TAP client of astronomical archives",
	Long:              aqtapDescription,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	// Initialize default aqtap config
	aqtapConfig = config.NewAqtapConfig()
	// Initialize command and config
	dependency.InitCommandAndConfig(rootCmd, true, aqtapConfig)

	// Bind more tap specific persistent flags
	flags := rootCmd.PersistentFlags()

	flags.StringP("service", "s", aqtapConfig.Service, fmt.Sprintf("service name or TAP endpoint url, known services: %v", tap.ServiceNames()))
	flags.StringP("username", "u", aqtapConfig.Username, "username of the service, the password is read from AQ_PASSWORD or the keyring")
	flags.Bool("basicauth", aqtapConfig.BasicAuth, "send credentials with every request instead of logging in")
	flags.StringP("format", "f", aqtapConfig.Format, "result format: votable, csv, tsv, json or fits")
	flags.StringP("output", "o", aqtapConfig.Output, "write results to the file instead of the terminal")
	flags.Duration("timeout", aqtapConfig.Timeout, "timeout of a single request, 0 is infinite")
	flags.Float64("ratelimit", float64(aqtapConfig.RateLimit), "requests per second sent to the service")
	flags.String("workhome", aqtapConfig.WorkHome, "aqtap working directory")
	flags.String("logdir", aqtapConfig.LogDir, "aqtap log directory")
	flags.String("cachedir", aqtapConfig.CacheDir, "aqtap download directory")
	flags.Duration("poll-interval", aqtapConfig.Poll.SlowInterval, "interval between job polls once a job runs long")

	// Bind common flags
	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind tap common flags to viper: %w", err))
	}

	if err := viper.BindPFlag("poll.slowInterval", flags.Lookup("poll-interval")); err != nil {
		panic(fmt.Errorf("bind poll interval to viper: %w", err))
	}

	if err := viper.BindEnv("password"); err != nil {
		panic(fmt.Errorf("bind password env to viper: %w", err))
	}

	initQuery()
	initTables()
	initJob()
	initHistory()
	initAuth()
	initDatalink()
}

func initAqtapAqpath(cfg *config.TapOption) (aqpath.Aqpath, error) {
	options := []aqpath.Option{}
	if cfg.WorkHome != "" {
		options = append(options, aqpath.WithWorkHome(cfg.WorkHome))
	}

	if cfg.LogDir != "" {
		options = append(options, aqpath.WithLogDir(cfg.LogDir))
	}

	if cfg.CacheDir != "" {
		options = append(options, aqpath.WithCacheDir(cfg.CacheDir))
	}

	return aqpath.New(options...)
}

// aqtapRuntime holds the clients a sub command runs with.
type aqtapRuntime struct {
	cfg       *config.TapOption
	path      aqpath.Aqpath
	requester query.Requester
	store     jobstore.Store
	session   *session
}

// tap returns the client of the configured service.
func (rt *aqtapRuntime) tap() (tap.Tap, error) {
	options := []tap.Option{
		tap.WithRequester(rt.requester),
		tap.WithPolicy(rt.cfg.Poll),
		tap.WithJobRecorder(rt.store),
	}

	if rt.cfg.BasicAuth {
		username, password, err := rt.cfg.Credentials()
		if err != nil {
			return nil, err
		}
		options = append(options, tap.WithBasicAuth(username, password))
	}

	return tap.NewService(rt.cfg.Service, options...)
}

// datalink returns the datalink client.
func (rt *aqtapRuntime) datalink() (datalink.Datalink, error) {
	options := []datalink.Option{datalink.WithRequester(rt.requester)}
	if rt.cfg.BasicAuth {
		username, password, err := rt.cfg.Credentials()
		if err != nil {
			return nil, err
		}
		options = append(options, datalink.WithBasicAuth(username, password))
	}

	return datalink.New(options...), nil
}

func newRequester(cfg *config.TapOption) (query.Requester, error) {
	client, err := query.NewHTTPClient(&cfg.Transport)
	if err != nil {
		return nil, err
	}

	return query.New(
		query.WithHTTPClient(client),
		query.WithCache(query.NewCache(cfg.Cache)),
		query.WithRateLimit(cfg.RateLimit, 1),
		query.WithTimeout(cfg.Timeout),
		query.WithProgress(os.Stderr),
	), nil
}

type runSubcmd func(ctx context.Context, rt *aqtapRuntime) error

// runAqtapSubcmd does some init operations and starts the sub command.
func runAqtapSubcmd(cmd *cobra.Command, cmdName string, args []string) error {
	// Convert config
	if err := aqtapConfig.Convert(cmdName, args); err != nil {
		return err
	}

	// Validate config
	if err := aqtapConfig.Validate(cmdName); err != nil {
		return err
	}

	// Initialize aqtap aqpath
	d, err := initAqtapAqpath(aqtapConfig)
	if err != nil {
		return err
	}

	rotateConfig := logger.LogRotateConfig{
		MaxSize:    aqtapConfig.LogMaxSize,
		MaxAge:     aqtapConfig.LogMaxAge,
		MaxBackups: aqtapConfig.LogMaxBackups}

	// Initialize logger
	if err := logger.InitAqtap(aqtapConfig.Verbose, aqtapConfig.Console, d.LogDir(), rotateConfig); err != nil {
		return fmt.Errorf("init aqtap logger: %w", err)
	}
	logger.Infof("version:\n%s", version.Version())
	logger.Debugf("aqtap config: %s", aqtapConfig)

	store, err := jobstore.New(d.WorkHome())
	if err != nil {
		return err
	}

	requester, err := newRequester(aqtapConfig)
	if err != nil {
		return err
	}

	rt := &aqtapRuntime{
		cfg:       aqtapConfig,
		path:      d,
		requester: requester,
		store:     store,
		session:   newSession(d.WorkHome(), requester.Jar()),
	}

	if err := rt.session.Load(aqtapConfig.Service); err != nil {
		logger.Warnf("load session of %s failed: %s", aqtapConfig.Service, err.Error())
	}

	var runCmd runSubcmd
	switch cmdName {
	case config.CmdQuery:
		runCmd = runQuery
	case config.CmdTables:
		runCmd = runTables
	case config.CmdList:
		runCmd = runList
	case config.CmdStatus:
		runCmd = runStatus
	case config.CmdWait:
		runCmd = runWait
	case config.CmdAbort:
		runCmd = runAbort
	case config.CmdDelete:
		runCmd = runDelete
	case config.CmdResults:
		runCmd = runResults
	case config.CmdHistory:
		runCmd = runHistory
	case config.CmdLogin:
		runCmd = runLogin
	case config.CmdLogout:
		runCmd = runLogout
	case config.CmdDatalink:
		runCmd = runDatalink
	case config.CmdCutout:
		runCmd = runCutout
	default:
		err := fmt.Errorf("unknown sub-command %s", cmdName)
		logger.Error(err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCmd(ctx, rt)
}
