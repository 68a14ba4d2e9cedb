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

import "github.com/spf13/pflag"

// Config holds every flag colafs accepts beyond the two positional
// arguments (backing-file path, mount point). It is bound through viper
// the way the teacher's cmd/root.go binds its cfg.Config, just with far
// fewer knobs: this filesystem has no GCS connection, cache or retry
// tuning to expose.
type Config struct {
	Foreground  bool   `mapstructure:"foreground"`
	ReadOnly    bool   `mapstructure:"read-only"`
	Debug       bool   `mapstructure:"debug"`
	MetricsAddr string `mapstructure:"metrics-addr"`
	LogFormat   string `mapstructure:"log-format"`
	LogSeverity string `mapstructure:"log-severity"`
	LogFile     string `mapstructure:"log-file"`
}

// bindFlags registers every Config field as a flag on flags, mirroring
// cfg.BindFlags's single call-site pattern.
func bindFlags(flags *pflag.FlagSet) {
	flags.Bool("foreground", false, "Run in the foreground instead of daemonizing.")
	flags.Bool("read-only", false, "Mount the filesystem read-only.")
	flags.Bool("debug", false, "Enable verbose FUSE debug logging.")
	flags.String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9090).")
	flags.String("log-format", "text", "Log output format: text or json.")
	flags.String("log-severity", "INFO", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	flags.String("log-file", "", "If set, write logs to this rotating file instead of stderr.")
}
