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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/export"
	"github.com/ademuri/listen-trends/internal/leaderboard"
	"github.com/ademuri/listen-trends/internal/play"
)

type ExportConfig struct {
	Load      LoadConfig
	OutDir    string
	Format    string
	TopN      int
	TopK      int
	Dimension string
}

var exportConfig ExportConfig

var exportCmd = &cobra.Command{
	Use:   "export [from] [to (optional)]",
	Short: "Writes every view to a directory",
	Long: `Computes the summary, monthly, day-of-week, hourly, top list, leaderboard,
discovery rate and genre views, and writes one file per view plus a manifest.
Date strings look like 'yyyy', 'yyyy-mm', 'yyyy-mm-dd' or '30d'. With no
dates, all plays are used.`,
	Args:    cobra.RangeArgs(0, 2),
	PreRunE: requireFlags("user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := exportConfig
		config.Load = loadConfigFromFlags(args)
		paths, err := runExport(config, time.Now())
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportConfig.OutDir, "out", "./data", "Directory to write views into")
	exportCmd.Flags().StringVar(&exportConfig.Format, "format", "json", "Output format: json or yaml")
	exportCmd.Flags().IntVar(&exportConfig.TopN, "top_n", 10, "Entries per month in the top lists (0 for all)")
	exportCmd.Flags().IntVar(&exportConfig.TopK, "top", leaderboard.DefaultTopK, "Leaderboard rank a category must reach to be kept")
	exportCmd.Flags().StringVar(&exportConfig.Dimension, "dimension", "artist", "Leaderboard dimension: artist or track")
}

func loadConfigFromFlags(args []string) LoadConfig {
	return LoadConfig{
		DbPath:   viper.GetString("database"),
		User:     viper.GetString("user"),
		Timezone: viper.GetString("timezone"),
		Args:     args,
	}
}

func runExport(config ExportConfig, now time.Time) ([]string, error) {
	format, err := export.ParseFormat(config.Format)
	if err != nil {
		return nil, err
	}
	dim, err := play.ParseDimension(config.Dimension)
	if err != nil {
		return nil, err
	}

	data, err := loadDataset(config.Load)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	views := export.Build(data.Events, data.Calendar.Location(), export.Options{
		TopN:        config.TopN,
		Dimension:   dim,
		Leaderboard: leaderboard.Options{TopK: config.TopK},
		Genres:      data.Genres,
	})
	logger.Info("computed views",
		zap.Int("plays", len(data.Events)),
		zap.Int("leaderboard_entries", len(views.Evolution)),
		zap.Duration("elapsed", time.Since(start)),
	)

	manifest := export.NewManifest(data.Events, data.Calendar.Location(), now)
	paths, err := export.Write(config.OutDir, views, format, manifest)
	if err != nil {
		return paths, err
	}
	logger.Info("wrote views", zap.String("dir", config.OutDir), zap.String("run_id", manifest.RunID))
	return paths, nil
}
