//go:build windows

package credentials

import (
	"os"

	"golang.org/x/sys/windows"
)

const lockedRegionLengthConstant = 1

func lockFileExclusive(lockFile *os.File) error {
	overlapped := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(lockFile.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, lockedRegionLengthConstant, 0, overlapped)
}

func unlockFile(lockFile *os.File) error {
	overlapped := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(lockFile.Fd()), 0, lockedRegionLengthConstant, 0, overlapped)
}
