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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/tap"
	"github.com/astroquery/astroquery-go/internal/aqerrors"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

var jobCmd = &cobra.Command{
	Use:               "job <command> [flags]",
	Short:             "manage the asynchronous jobs of the service",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
}

var jobListCmd = &cobra.Command{
	Use:               "list [flags]",
	Short:             "list the jobs of the service",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdList, args)
	},
}

var jobStatusCmd = &cobra.Command{
	Use:               "status <job>... [flags]",
	Short:             "show the state of jobs",
	Args:              cobra.MinimumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdStatus, args)
	},
}

var jobWaitCmd = &cobra.Command{
	Use:               "wait <job>... [flags]",
	Short:             "wait until jobs reach a final phase",
	Args:              cobra.MinimumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdWait, args)
	},
}

var jobAbortCmd = &cobra.Command{
	Use:               "abort <job>... [flags]",
	Short:             "abort running jobs",
	Args:              cobra.MinimumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdAbort, args)
	},
}

var jobDeleteCmd = &cobra.Command{
	Use:               "delete <job>... [flags]",
	Short:             "delete jobs from the service and the local history",
	Args:              cobra.MinimumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdDelete, args)
	},
}

var jobResultsCmd = &cobra.Command{
	Use:   "results <job> [flags]",
	Short: "fetch the result of a completed job",
	Long: `Fetch the result of a completed job. With --output the result is
downloaded as served into the file, resuming a partial download.`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdResults, args)
	},
}

func initJob() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobListCmd, jobStatusCmd, jobWaitCmd, jobAbortCmd, jobDeleteCmd, jobResultsCmd)

	flags := jobListCmd.Flags()
	flags.StringSlice("phase", aqtapConfig.Phases, "only list jobs in the phases")
	flags.Int("last", aqtapConfig.Last, "only list the most recent jobs")

	if err := viper.BindPFlag("phases", flags.Lookup("phase")); err != nil {
		panic(fmt.Errorf("bind phase flag to viper: %w", err))
	}

	if err := viper.BindPFlag("last", flags.Lookup("last")); err != nil {
		panic(fmt.Errorf("bind last flag to viper: %w", err))
	}
}

func runList(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	input := &tap.ListJobsInput{Last: rt.cfg.Last}
	for _, p := range rt.cfg.Phases {
		phase, err := uws.ParsePhase(p)
		if err != nil {
			return err
		}
		input.Phases = append(input.Phases, phase)
	}

	jobs, err := client.ListJobsWithContext(ctx, input)
	if err != nil {
		return err
	}

	renderJobs(os.Stdout, jobs)
	return nil
}

func runStatus(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	var result error
	for _, id := range rt.cfg.JobIDs {
		job, err := client.GetJobWithContext(ctx, id)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		rt.updatePhase(id, job.Phase)
		renderJob(os.Stdout, job)
	}

	return result
}

func runWait(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	var result error
	for _, id := range rt.cfg.JobIDs {
		job, err := client.WaitJobWithContext(ctx, id)
		if job != nil {
			rt.updatePhase(id, job.Phase)
		}

		var jobErr *aqerrors.JobError
		switch {
		case errors.As(err, &jobErr):
			fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", id, formatPhase(uws.Phase(jobErr.Phase)), jobErr.Message)
			result = multierror.Append(result, err)
		case err != nil:
			result = multierror.Append(result, err)
		default:
			fmt.Fprintf(os.Stdout, "%s\t%s\n", id, formatPhase(job.Phase))
		}
	}

	return result
}

func runAbort(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	var result error
	for _, id := range rt.cfg.JobIDs {
		if err := client.AbortJobWithContext(ctx, id); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		rt.updatePhase(id, uws.PhaseAborted)
		logger.WithJob(id, rt.cfg.Service).Info("job aborted")
		fmt.Fprintf(os.Stdout, "%s\t%s\n", id, formatPhase(uws.PhaseAborted))
	}

	return result
}

func runDelete(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	return client.DeleteJobsWithContext(ctx, rt.cfg.JobIDs...)
}

func runResults(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	id := rt.cfg.JobIDs[0]
	if rt.cfg.Output != "" {
		size, err := client.DownloadResultsWithContext(ctx, id, rt.cfg.Output)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s written to %s\n", formatSize(size), rt.cfg.Output)
		return nil
	}

	format, err := table.ParseFormat(rt.cfg.Format)
	if err != nil {
		return err
	}

	tbl, err := client.GetResultsWithContext(ctx, id, format)
	if err != nil {
		return err
	}

	renderTable(os.Stdout, tbl)
	return nil
}

// updatePhase stores the phase of a job of the local history.
func (rt *aqtapRuntime) updatePhase(jobID string, phase uws.Phase) {
	if err := rt.store.UpdatePhase(jobID, phase); err != nil && !errors.Is(err, aqerrors.ErrNotFound) {
		logger.WithJob(jobID, rt.cfg.Service).Warnf("update job history failed: %s", err.Error())
	}
}

func renderJobs(w io.Writer, jobs []uws.JobRef) {
	tw := newTableWriter(w, []string{"JOB", "PHASE", "RUN ID", "OWNER", "CREATED"})
	for _, job := range jobs {
		tw.Append([]string{job.ID, formatPhase(job.Phase), job.RunID, job.OwnerID, formatTime(job.CreationTime)})
	}
	tw.Render()

	fmt.Fprintf(w, "%d jobs\n", len(jobs))
}

func renderJob(w io.Writer, job *uws.Job) {
	fields := [][]string{
		{"Job", job.ID},
		{"Phase", formatPhase(job.Phase)},
		{"RunID", job.RunID},
		{"Owner", job.OwnerID},
		{"Created", formatTime(job.CreationTime)},
		{"Started", formatTime(job.StartTime)},
		{"Ended", formatTime(job.EndTime)},
		{"Destruction", formatTime(job.Destruction)},
	}

	if job.ErrorSummary != nil {
		fields = append(fields, []string{"Error", job.ErrorSummary.Message})
	}

	if query, ok := job.Parameters["QUERY"]; ok {
		fields = append(fields, []string{"Query", strings.TrimSpace(query)})
	}

	for _, r := range job.Results {
		fields = append(fields, []string{"Result " + r.ID, strings.TrimSpace(r.Href + " " + formatSize(r.Size))})
	}

	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", f[0]+":", f[1])
	}
	fmt.Fprintln(w)
}
