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
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/leaderboard"
	"github.com/ademuri/listen-trends/internal/server"
)

type ServeConfig struct {
	Load           LoadConfig
	Addr           string
	RedisAddr      string
	CacheTTL       time.Duration
	AllowedOrigins []string
	TopN           int
	TopK           int
}

var serveCmd = &cobra.Command{
	Use:   "serve [from] [to (optional)]",
	Short: "Serves the views over HTTP",
	Long: `Loads plays once and serves JSON views under /api, plus /healthz and
/metrics. Every /api route accepts start and end query parameters
(yyyy-mm-dd). Responses are cached in Redis when --redis_addr is set.`,
	Args:    cobra.RangeArgs(0, 2),
	PreRunE: requireFlags("user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := ServeConfig{
			Load:           loadConfigFromFlags(args),
			Addr:           viper.GetString("addr"),
			RedisAddr:      viper.GetString("redis_addr"),
			CacheTTL:       viper.GetDuration("cache_ttl"),
			AllowedOrigins: viper.GetStringSlice("allowed_origins"),
			TopN:           serveTopN,
			TopK:           serveTopK,
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return serve(ctx, config)
	},
}

var serveTopN int
var serveTopK int

func init() {
	rootCmd.AddCommand(serveCmd)

	var addr string
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))

	var redisAddr string
	serveCmd.Flags().StringVar(&redisAddr, "redis_addr", "", "Redis address for the response cache, e.g. localhost:6379 (default is no cache)")
	viper.BindPFlag("redis_addr", serveCmd.Flags().Lookup("redis_addr"))

	var cacheTTL time.Duration
	serveCmd.Flags().DurationVar(&cacheTTL, "cache_ttl", 10*time.Minute, "How long cached responses live")
	viper.BindPFlag("cache_ttl", serveCmd.Flags().Lookup("cache_ttl"))

	var origins []string
	serveCmd.Flags().StringSliceVar(&origins, "allowed_origins", []string{"*"}, "Origins allowed to make cross-origin requests")
	viper.BindPFlag("allowed_origins", serveCmd.Flags().Lookup("allowed_origins"))

	serveCmd.Flags().IntVar(&serveTopN, "top_n", 10, "Default entries per month in the top lists")
	serveCmd.Flags().IntVar(&serveTopK, "top", leaderboard.DefaultTopK, "Default leaderboard rank a category must reach to be kept")
}

func serve(ctx context.Context, config ServeConfig) error {
	data, err := loadDataset(config.Load)
	if err != nil {
		return err
	}

	var cache server.Cache
	if config.RedisAddr != "" {
		cache = server.NewRedisCache(config.RedisAddr, config.CacheTTL)
		logger.Info("caching responses", zap.String("redis", config.RedisAddr), zap.Duration("ttl", config.CacheTTL))
	}

	srv := server.New(data.Events, logger, server.Config{
		AllowedOrigins: config.AllowedOrigins,
		TopN:           config.TopN,
		Leaderboard:    leaderboard.Options{TopK: config.TopK},
		Genres:         data.Genres,
		Cache:          cache,
		Location:       data.Calendar.Location(),
	})
	return srv.ListenAndServe(ctx, config.Addr)
}
