// Copyright 2025 The colafs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adurajfs/colafs/internal/logger"
)

var (
	bindErr      error
	unmarshalErr error
	config       Config
)

var rootCmd = &cobra.Command{
	Use:   "colafs [flags] backing-file mount-point",
	Short: "Mount a COLA/FAT single-file filesystem",
	Long: `colafs stores an entire directory tree inside one host backing
file, indexed by a cache-oblivious lookup array and a file allocation
table, and exposes it as a FUSE mount.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		return run(args[0], args[1])
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	bindFlags(rootCmd.Flags())
	bindErr = viper.BindPFlags(rootCmd.Flags())
}

func initConfig() {
	unmarshalErr = viper.Unmarshal(&config)
	if unmarshalErr != nil {
		return
	}
	logger.SetLogFormat(config.LogFormat)
	logger.SetSeverity(config.LogSeverity)
	if config.LogFile != "" {
		unmarshalErr = logger.InitLogFile(config.LogFile, 512, 10, true)
	}
}
