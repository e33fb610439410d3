// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"maxifier.safepic.fr/tsmap"
)

const crawlLongDescription = `Fetch an HTML page, collect the src of every <script> on it and
extract the sourcemap of each script into <out_dir>/<host>/<script dir>.

Scripts are processed one after another. A script without a usable
sourcemap is reported in the summary table and does not stop the crawl.`

func newCrawlCmd(v *viper.Viper) *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "crawl --url <page>",
		Short: "Crawl a page, find its scripts and extract their sourcemaps",
		Long:  crawlLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			transform, err := transformFromConfig(v)
			if err != nil {
				return err
			}
			fetcher, err := fetcherFromConfig(v)
			if err != nil {
				return err
			}

			printer := tsmap.NewPrinter(cmd.OutOrStdout())
			results, err := tsmap.Crawl(cmd.Context(), tsmap.CrawlConfig{
				PageURL:       pageURL,
				OutDir:        v.GetString(outDirKey),
				Transform:     transform,
				UseSourceRoot: v.GetBool(useSourceRootKey),
				SaveMap:       v.GetBool(saveMapKey),
				Fetcher:       fetcher,
				OnWrite: func(_ tsmap.Target, dest string) {
					printer.Written(dest)
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout())
			renderCrawlTable(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVarP(&pageURL, "url", "u", "", "root page URL to crawl (required)")

	return cmd
}

func renderCrawlTable(w io.Writer, results []tsmap.ScriptResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Script", "Sourcemap", "Files", "Status"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	written := 0
	for _, r := range results {
		table.Append([]string{r.ScriptURL, mapColumn(r), fmt.Sprintf("%d", r.Written), crawlStatus(r.Err)})
		written += r.Written
	}
	table.SetFooter([]string{fmt.Sprintf("%d scripts", len(results)), "", fmt.Sprintf("%d", written), ""})
	table.Render()
}

func mapColumn(r tsmap.ScriptResult) string {
	switch {
	case r.Origin == tsmap.OriginInline:
		return "(inline)"
	case r.MapURL != "":
		return r.MapURL
	default:
		return "-"
	}
}

// crawlStatus keeps the table to one short word per script.
func crawlStatus(err error) string {
	var (
		fetchErr    *tsmap.FetchError
		notFoundErr *tsmap.NotFoundError
		decodeErr   *tsmap.DecodeError
		parseErr    *tsmap.ParseError
		schemaErr   *tsmap.SchemaError
		outErr      *tsmap.OutputDirError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &notFoundErr):
		return "no sourcemap"
	case errors.As(err, &fetchErr):
		return "fetch failed"
	case errors.As(err, &decodeErr):
		return "decode error"
	case errors.As(err, &parseErr):
		return "invalid JSON"
	case errors.As(err, &schemaErr):
		return "missing " + schemaErr.Key
	case errors.As(err, &outErr):
		return "write failed"
	default:
		return "error"
	}
}
