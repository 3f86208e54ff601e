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
	"github.com/ademuri/listen-trends/internal/rollup"
)

var trendsCmd = &cobra.Command{
	Use:     "trends [from] [to (optional)]",
	Short:   "Prints monthly listening totals",
	Long:    `Hours, plays, distinct tracks and artists, and the share of time spent on newly discovered tracks, per month.`,
	Args:    cobra.RangeArgs(0, 2),
	PreRunE: requireFlags("user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTrends(os.Stdout, loadConfigFromFlags(args))
	},
}

func init() {
	rootCmd.AddCommand(trendsCmd)
}

func printTrends(out io.Writer, load LoadConfig) error {
	data, err := loadDataset(load)
	if err != nil {
		return err
	}

	fmt.Fprint(out, export.MonthlyTable(rollup.Monthly(data.Events), rollup.DiscoveryRate(data.Events)))
	return nil
}
