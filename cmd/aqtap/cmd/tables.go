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
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/tap"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [schema] [flags]",
	Short: "list the tables published by the service",
	Long: `List the tables published by the service, optionally of one schema.
With --table the columns of a single table are described.`,
	Args:              cobra.MaximumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdTables, args)
	},
}

func initTables() {
	rootCmd.AddCommand(tablesCmd)

	flags := tablesCmd.Flags()
	flags.String("schema", aqtapConfig.Schema, "only list the tables of the schema")
	flags.StringP("table", "t", aqtapConfig.Table, "describe the columns of the table")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind tables flags to viper: %w", err))
	}
}

func runTables(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	if rt.cfg.Table != "" {
		meta, err := client.LoadTableWithContext(ctx, rt.cfg.Table)
		if err != nil {
			return err
		}

		renderColumns(os.Stdout, meta)
		return nil
	}

	tables, err := client.LoadTablesWithContext(ctx, &tap.LoadTablesInput{
		OnlyNames: true,
		Schema:    rt.cfg.Schema,
	})
	if err != nil {
		return err
	}

	renderTables(os.Stdout, tables)
	return nil
}

func renderTables(w io.Writer, tables []*tap.TableMeta) {
	tw := newTableWriter(w, []string{"SCHEMA", "TABLE", "DESCRIPTION"})
	for _, t := range tables {
		tw.Append([]string{t.Schema, t.Name, firstLine(t.Description)})
	}
	tw.Render()

	fmt.Fprintf(w, "%d tables\n", len(tables))
}

func renderColumns(w io.Writer, meta *tap.TableMeta) {
	fmt.Fprintf(w, "%s\n", meta.Name)
	if meta.Description != "" {
		fmt.Fprintf(w, "%s\n", firstLine(meta.Description))
	}

	tw := newTableWriter(w, []string{"COLUMN", "DATATYPE", "UNIT", "UCD", "INDEXED", "DESCRIPTION"})
	for _, c := range meta.Columns {
		indexed := ""
		if c.Indexed() {
			indexed = "yes"
		}

		tw.Append([]string{c.Name, c.Datatype, c.Unit, c.UCD, indexed, firstLine(c.Description)})
	}
	tw.Render()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}

	return s
}
