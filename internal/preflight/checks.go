package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"aerial/internal/config"
	"aerial/internal/deps"
)

// Capture temp files are tiny; anything under this is a sign the disk is
// effectively full.
const minTempSpaceBytes = 64 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTempSpace verifies the temp directory has room for capture output.
func CheckTempSpace(path string) Result {
	const name = "Temp space"

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minTempSpaceBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (only %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckSystemDeps evaluates the external binaries stream checking needs.
// Both the daemon status endpoint and the CLI status command use this so
// the requirements list lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	var configured string
	if cfg != nil {
		configured = cfg.FFmpeg.Binary
	}
	return []deps.Status{deps.CheckFFmpeg(configured)}
}
