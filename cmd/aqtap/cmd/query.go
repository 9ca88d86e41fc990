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
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/tap"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
	"github.com/astroquery/astroquery-go/pkg/table"
)

var queryDescription = `Run an ADQL query against the service.

The query is given as arguments, with --query or read from --queryfile.
Synchronous queries return the result directly; with --async the query
is submitted as a job, polled until it ends and its result is fetched.
Local tables given with --upload name=path can be referenced in the query
as TAP_UPLOAD.name.`

var queryCmd = &cobra.Command{
	Use:   "query [ADQL] [flags]",
	Short: "run an ADQL query",
	Long:  queryDescription,
	Example: `  aqtap query -s gaia "SELECT TOP 10 source_id, ra, dec FROM gaiadr3.gaia_source"
  aqtap query --async --queryfile cone.adql -o cone.csv`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdQuery, args)
	},
}

func initQuery() {
	rootCmd.AddCommand(queryCmd)

	flags := queryCmd.Flags()
	flags.StringP("query", "q", aqtapConfig.Query, "ADQL query text")
	flags.String("queryfile", aqtapConfig.QueryFile, "file holding the ADQL query")
	flags.Int("maxrec", aqtapConfig.MaxRec, "maximum number of rows, 0 uses the service limit")
	flags.BoolP("async", "a", aqtapConfig.Async, "run the query as an asynchronous job")
	flags.StringSlice("upload", aqtapConfig.Uploads, "local table uploaded as name=path")
	flags.StringSlice("describe", aqtapConfig.Describe, "print statistics of the numeric result columns")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind query flags to viper: %w", err))
	}

	if err := viper.BindPFlag("uploads", flags.Lookup("upload")); err != nil {
		panic(fmt.Errorf("bind upload flag to viper: %w", err))
	}
}

func runQuery(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	format, err := table.ParseFormat(rt.cfg.Format)
	if err != nil {
		return err
	}

	uploads, closeUploads, err := openUploads(rt.cfg)
	if err != nil {
		return err
	}
	defer closeUploads()

	input := &tap.QueryInput{
		Query:   rt.cfg.Query,
		Format:  format,
		MaxRec:  rt.cfg.MaxRec,
		Uploads: uploads,
		Cache:   true,
	}

	log := logger.WithService(rt.cfg.Service, client.Endpoint())
	var tbl *table.Table
	if rt.cfg.Async {
		log.Infof("submit query job: %s", input.Query)
		tbl, err = client.QueryAsyncWithContext(ctx, input)
	} else {
		log.Infof("run query: %s", input.Query)
		tbl, err = client.QueryWithContext(ctx, input)
	}
	if err != nil {
		log.Errorf("query failed: %s", err.Error())
		return err
	}

	if err := writeTable(os.Stdout, tbl, rt.cfg.Output); err != nil {
		return err
	}

	return describeColumns(os.Stdout, tbl, rt.cfg.Describe)
}

// openUploads opens the upload files, the returned func closes them.
func openUploads(cfg *config.TapOption) ([]tap.Upload, func(), error) {
	files, err := cfg.ParseUploads()
	if err != nil {
		return nil, func() {}, err
	}

	var (
		uploads []tap.Upload
		opened  []*os.File
	)
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, file := range files {
		f, err := os.Open(file.Path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open upload %s: %w", file.Name, err)
		}
		opened = append(opened, f)

		uploads = append(uploads, tap.Upload{
			Name:     file.Name,
			FileName: filepath.Base(file.Path),
			Reader:   f,
		})
	}

	return uploads, closeAll, nil
}
