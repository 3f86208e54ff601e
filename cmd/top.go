/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ademuri/listen-trends/internal/export"
	"github.com/ademuri/listen-trends/internal/play"
	"github.com/ademuri/listen-trends/internal/rollup"
)

var (
	limitArtists int
	limitTracks  int
)

var topCmd = &cobra.Command{
	Use:     "top [from] [to (optional)]",
	Short:   "Prints each month's top artists and tracks",
	Long:    `Ranks by hours listened. Date strings look like 'yyyy', 'yyyy-mm', 'yyyy-mm-dd' or '30d'.`,
	Args:    cobra.RangeArgs(0, 2),
	PreRunE: requireFlags("user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTop(os.Stdout, loadConfigFromFlags(args), limitArtists, limitTracks)
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntVar(&limitArtists, "artists", 10, "Number of top artists to show per month")
	topCmd.Flags().IntVar(&limitTracks, "tracks", 10, "Number of top tracks to show per month")
}

// printTop prints the artist and track lists. A negative limit skips that
// list; zero shows everything.
func printTop(out io.Writer, load LoadConfig, artists, tracks int) error {
	data, err := loadDataset(load)
	if err != nil {
		return err
	}

	if artists >= 0 {
		fmt.Fprintln(out, "## Top Artists")
		fmt.Fprint(out, export.TopTable(rollup.Top(data.Events, play.Artist, artists)))
		fmt.Fprintln(out)
	}
	if tracks >= 0 {
		fmt.Fprintln(out, "## Top Tracks")
		fmt.Fprint(out, export.TopTable(rollup.Top(data.Events, play.Track, tracks)))
	}
	return nil
}
