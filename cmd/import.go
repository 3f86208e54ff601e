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
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/spotify"
	"github.com/ademuri/listen-trends/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <files or directories...>",
	Short: "Imports Spotify extended streaming history",
	Long: `Reads Streaming_History_Audio_*.json files from a Spotify data export.
Directories are searched for matching files. Podcast and audiobook entries,
which have no track name, are skipped.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: requireFlags("user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		imported, skipped, err := importSpotify(viper.GetString("database"), viper.GetString("user"), args)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d plays, skipped %d records\n", imported, skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// historyFiles expands directories into their streaming history files.
func historyFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(filepath.Join(arg, "Streaming_History_Audio_*.json"))
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", arg, err)
		}
		if len(matches) == 0 && strings.HasSuffix(strings.ToLower(arg), ".json") {
			matches = []string{arg}
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no streaming history found in %s", arg)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func importSpotify(dbPath, user string, args []string) (imported int, skipped int, err error) {
	files, err := historyFiles(args)
	if err != nil {
		return
	}

	db, err := store.New(dbPath)
	if err != nil {
		err = fmt.Errorf("opening database: %w", err)
		return
	}
	defer db.Close()

	user = strings.ToLower(user)
	if err = db.CreateUser(user); err != nil {
		err = fmt.Errorf("creating user: %w", err)
		return
	}

	for _, file := range files {
		var res spotify.Result
		res, err = spotify.ReadFile(file)
		if err != nil {
			return
		}
		if err = db.AddPlays(user, res.Plays); err != nil {
			err = fmt.Errorf("importing %s: %w", file, err)
			return
		}
		logger.Info("imported file",
			zap.String("file", filepath.Base(file)),
			zap.Int("plays", len(res.Plays)),
			zap.Int("skipped", res.Skipped),
		)
		imported += len(res.Plays)
		skipped += res.Skipped
	}
	return
}
