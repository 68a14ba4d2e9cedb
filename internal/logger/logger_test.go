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

package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSeverityFiltersBelowThreshold(t *testing.T) {
	ctx := context.Background()
	SetSeverity(Error)
	assert.False(t, defaultLogger.Enabled(ctx, LevelInfo))
	assert.True(t, defaultLogger.Enabled(ctx, LevelError))

	SetSeverity(Trace)
	assert.True(t, defaultLogger.Enabled(ctx, LevelTrace))
}

func TestSetLogFormatSwitchesHandler(t *testing.T) {
	SetLogFormat("json")
	assert.IsType(t, defaultLoggerFactory.createHandler(), defaultLogger.Handler())

	SetLogFormat("text")
	SetSeverity(Info)
}

func TestInitLogFileWritesToRotatingSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colafs.log")

	require.NoError(t, InitLogFile(path, 1, 1, false))
	SetSeverity(Info)
	Infof("hello %s", "world")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")

	defaultLoggerFactory.file = nil
	rebuild()
}

func TestNewStdLoggerForwardsAtTraceSeverity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fuse-debug.log")
	require.NoError(t, InitLogFile(path, 1, 1, false))
	SetSeverity(Trace)

	std := NewStdLogger("fuse_debug: ")
	std.Print("ping")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fuse_debug: ping")

	defaultLoggerFactory.file = nil
	rebuild()
	SetSeverity(Info)
}
