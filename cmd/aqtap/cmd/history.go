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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/tap"
	"github.com/astroquery/astroquery-go/internal/jobstore"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

var historyCmd = &cobra.Command{
	Use:   "history [flags]",
	Short: "list the jobs submitted from this machine",
	Long: `List the jobs submitted from this machine, most recent first, with the
last phase they were seen in. Use --all to include every service.`,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdHistory, args)
	},
}

func initHistory() {
	rootCmd.AddCommand(historyCmd)

	flags := historyCmd.Flags()
	flags.Bool("all", false, "list the jobs of every service")
	flags.Bool("clear", false, "remove the local job history")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind history flags to viper: %w", err))
	}
}

func runHistory(ctx context.Context, rt *aqtapRuntime) error {
	if rt.cfg.Clear {
		if err := rt.store.Clear(); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, "job history removed")
		return nil
	}

	var service string
	if !rt.cfg.All {
		svc, err := tap.Resolve(rt.cfg.Service)
		if err != nil {
			return err
		}
		service = svc.Name
	}

	records, err := rt.store.List(service)
	if err != nil {
		return err
	}

	renderHistory(os.Stdout, records)
	return nil
}

func renderHistory(w io.Writer, records []*jobstore.Record) {
	tw := newTableWriter(w, []string{"JOB", "SERVICE", "PHASE", "CREATED", "QUERY"})
	for _, r := range records {
		tw.Append([]string{r.JobID, r.Service, formatPhase(uws.Phase(r.Phase)), formatTime(r.CreatedAt), firstLine(r.Query)})
	}
	tw.Render()

	fmt.Fprintf(w, "%d jobs\n", len(records))
}
