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
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jacobsa/daemonize"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/kardianos/osext"

	"github.com/adurajfs/colafs/fsys"
	"github.com/adurajfs/colafs/internal/logger"
	"github.com/adurajfs/colafs/internal/metricshub"
	"github.com/adurajfs/colafs/store"
)

// run resolves the backing-file and mount-point arguments, then either
// daemonizes (the default) or mounts in the foreground, mirroring the
// teacher's legacy_main.go split between the re-exec-as-daemon path and
// the actual mountWithArgs call.
func run(backingFile, mountPoint string) error {
	backingFile, err := filepath.Abs(backingFile)
	if err != nil {
		return fmt.Errorf("resolving backing file path: %w", err)
	}
	mountPoint, err = filepath.Abs(mountPoint)
	if err != nil {
		return fmt.Errorf("resolving mount point: %w", err)
	}

	if !config.Foreground {
		return daemonizeMount(backingFile, mountPoint)
	}

	mfs, err := mountWithArgs(backingFile, mountPoint)
	if err != nil {
		if err2 := daemonize.SignalOutcome(err); err2 != nil {
			logger.Errorf("failed to signal mount outcome to parent: %v", err2)
		}
		return fmt.Errorf("mountWithArgs: %w", err)
	}

	logger.Infof("File system has been successfully mounted at %q.", mountPoint)
	if err := daemonize.SignalOutcome(nil); err != nil {
		logger.Errorf("failed to signal successful mount to parent: %v", err)
	}

	return mfs.Join(context.Background())
}

// daemonizeMount re-execs the current binary with --foreground set,
// waiting for it to either mount successfully or report a failure, the
// same dance the teacher's daemonize.Run call performs. The positional
// arguments are replaced with their absolute forms because the daemonized
// child does not inherit a useful working directory.
func daemonizeMount(backingFile, mountPoint string) error {
	path, err := osext.Executable()
	if err != nil {
		return fmt.Errorf("osext.Executable: %w", err)
	}

	args := append([]string{"--foreground"}, os.Args[1:]...)
	args[len(args)-2] = backingFile
	args[len(args)-1] = mountPoint

	env := []string{fmt.Sprintf("PATH=%s", os.Getenv("PATH"))}

	if err := daemonize.Run(path, args, env, os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("daemonize.Run: %w", err)
	}
	return nil
}

// mountWithArgs opens the backing store, builds the FUSE file system and
// mounts it, optionally starting a metrics HTTP endpoint.
func mountWithArgs(backingFile, mountPoint string) (*fuse.MountedFileSystem, error) {
	s, err := store.Open(backingFile)
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}

	uid, gid := myUserAndGroup()

	fs := fsys.New(s, uid, gid)

	if config.MetricsAddr != "" {
		hub := metricshub.New()
		fs.SetMetrics(hub)
		go reportStats(hub, fs)
		go func() {
			if err := hub.Serve(config.MetricsAddr); err != nil {
				logger.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	server := fuseutil.NewFileSystemServer(fs)

	mountCfg := &fuse.MountConfig{
		FSName:      "colafs",
		Subtype:     "colafs",
		VolumeName:  "colafs",
		ReadOnly:    config.ReadOnly,
		ErrorLogger: logger.NewStdLogger("fuse: "),
	}
	if config.Debug {
		mountCfg.DebugLogger = logger.NewStdLogger("fuse_debug: ")
	}

	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		return nil, fmt.Errorf("fuse.Mount: %w", err)
	}
	return mfs, nil
}

// reportStats polls fs.Stats on an interval and feeds the results into
// hub's gauges. It runs for the lifetime of the mount.
func reportStats(hub *metricshub.Hub, fs *fsys.FileSystem) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		colaUsed, colaTotal, fatFree, fatTotal := fs.Stats()
		hub.SetColaOccupancy(colaUsed, colaTotal)
		hub.SetFatOccupancy(fatFree, fatTotal)
	}
}

// myUserAndGroup resolves the invoking user's numeric uid/gid, the way
// the teacher's internal/perms.MyUserAndGroup does, without pulling in
// that package's GCS-specific override flags (--uid/--gid are out of
// scope here; this filesystem reports a fixed single owner per spec).
func myUserAndGroup() (uid, gid uint32) {
	u, err := user.Current()
	if err != nil {
		return 0, 0
	}
	if n, err := strconv.ParseUint(u.Uid, 10, 32); err == nil {
		uid = uint32(n)
	}
	if n, err := strconv.ParseUint(u.Gid, 10, 32); err == nil {
		gid = uint32(n)
	}
	return uid, gid
}
