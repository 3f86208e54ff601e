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

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/export"
	"github.com/ademuri/listen-trends/internal/leaderboard"
	"github.com/ademuri/listen-trends/internal/play"
)

type LeaderboardConfig struct {
	TopK      int
	Dimension string
	Quarter   string
}

var leaderboardConfig LeaderboardConfig

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [from] [to (optional)]",
	Short: "Ranks artists or tracks by trailing twelve-month listening time",
	Long: `At every quarter, ranks categories by hours listened in that quarter and
the three before it. Categories that never reach --top are left out.
Date strings look like 'yyyy', 'yyyy-mm', 'yyyy-mm-dd' or '30d'.`,
	Args:    cobra.RangeArgs(0, 2),
	PreRunE: requireFlags("user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLeaderboard(os.Stdout, loadConfigFromFlags(args), leaderboardConfig)
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.Flags().IntVarP(&leaderboardConfig.TopK, "top", "n", leaderboard.DefaultTopK, "Rank a category must reach in some quarter to be shown")
	leaderboardCmd.Flags().StringVar(&leaderboardConfig.Dimension, "dimension", "artist", "Rank artists or tracks")
	leaderboardCmd.Flags().StringVar(&leaderboardConfig.Quarter, "quarter", "", "Only show this quarter, e.g. 2024-Q1")
}

func printLeaderboard(out io.Writer, load LoadConfig, config LeaderboardConfig) error {
	dim, err := play.ParseDimension(config.Dimension)
	if err != nil {
		return err
	}
	var only string
	if config.Quarter != "" {
		q, err := calendar.ParseQuarter(config.Quarter)
		if err != nil {
			return err
		}
		only = q.Key()
	}

	data, err := loadDataset(load)
	if err != nil {
		return err
	}

	entries := leaderboard.Compute(data.Events, dim, leaderboard.Options{TopK: config.TopK})
	rows := export.EvolutionRows(entries, dim)
	if only != "" {
		var kept []export.EvolutionRow
		for _, r := range rows {
			if r.YearQuarter == only {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	fmt.Fprint(out, export.EvolutionTable(rows))
	return nil
}
