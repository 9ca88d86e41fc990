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
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/datalink"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
)

var datalinkCmd = &cobra.Command{
	Use:   "datalink <endpoint> <id> [flags]",
	Short: "list the Datalink links of a dataset",
	Example: `  aqtap datalink https://ws.cadc-ccda.hia-iha.nrc-cnrc.gc.ca/caom2ops/datalink \
    "ivo://cadc.nrc.ca/HST?ib1q08030/ib1q08030_drz"`,
	Args:              cobra.MaximumNArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdDatalink, args)
	},
}

var cutoutCmd = &cobra.Command{
	Use:   "cutout <id> [flags]",
	Short: "download a SODA cutout of a dataset",
	Long: `Download a SODA cutout of a dataset. The region is a circle given by
--center and --radius, optionally restricted to the wavelength range --band
in --bandunit.`,
	Example: `  aqtap cutout --endpoint https://example.org/soda/sync --center "10.68 41.27" \
    --radius 2arcmin --band "500 600" ivo://example.org/cube?1`,
	Args:              cobra.MaximumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdCutout, args)
	},
}

func initDatalink() {
	rootCmd.AddCommand(datalinkCmd, cutoutCmd)

	flags := cutoutCmd.Flags()
	flags.String("endpoint", aqtapConfig.Endpoint, "SODA endpoint url")
	flags.String("id", aqtapConfig.ID, "dataset identifier")
	flags.String("center", aqtapConfig.Center, `cutout center, e.g. "10.68 41.27" or "00:42:44.3 +41:16:09"`)
	flags.String("radius", aqtapConfig.Radius, `cutout radius, e.g. "2arcmin" or "0.05"`)
	flags.String("band", aqtapConfig.Band, `wavelength range, e.g. "500 600"`)
	flags.String("bandunit", aqtapConfig.BandUnit, "unit of the wavelength range")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind cutout flags to viper: %w", err))
	}
}

func runDatalink(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.datalink()
	if err != nil {
		return err
	}

	links, err := client.LinksWithContext(ctx, rt.cfg.Endpoint, rt.cfg.ID)
	if err != nil {
		return err
	}

	renderLinks(os.Stdout, links)
	return nil
}

func runCutout(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.datalink()
	if err != nil {
		return err
	}

	circle, band, err := rt.cfg.Region()
	if err != nil {
		return err
	}

	output := rt.cfg.Output
	if output == "" {
		output = filepath.Join(rt.path.DownloadDir(), cutoutFileName(rt.cfg.ID))
	}

	input := &datalink.CutoutInput{
		Endpoint: rt.cfg.Endpoint,
		ID:       rt.cfg.ID,
		Circle:   circle,
		Band:     band,
	}

	size, err := client.CutoutWithContext(ctx, input, output)
	if err != nil {
		return err
	}

	logger.Infof("cutout of %s written to %s", rt.cfg.ID, output)
	fmt.Fprintf(os.Stdout, "%s written to %s\n", formatSize(size), output)
	return nil
}

func renderLinks(w io.Writer, links *datalink.Links) {
	tw := newTableWriter(w, []string{"SEMANTICS", "CONTENT TYPE", "SIZE", "ACCESS", "DESCRIPTION"})
	for _, link := range links.Links {
		access := link.AccessURL
		switch {
		case link.ErrorMessage != "":
			access = link.ErrorMessage
		case link.ServiceDef != "":
			access = "service " + link.ServiceDef
			if svc, ok := links.Service(link.ServiceDef); ok {
				access = fmt.Sprintf("service %s (%s)", link.ServiceDef, svc.AccessURL)
			}
		}

		tw.Append([]string{link.Semantics, link.ContentType, formatSize(link.ContentLength), access, firstLine(link.Description)})
	}
	tw.Render()

	fmt.Fprintf(w, "%d links\n", len(links.Links))
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// cutoutFileName derives a file name from a dataset identifier.
func cutoutFileName(id string) string {
	name := unsafeFileChars.ReplaceAllString(id, "_")
	if len(name) > 128 {
		name = name[len(name)-128:]
	}

	return name + ".fits"
}
