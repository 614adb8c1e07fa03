//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package credentials

import (
	"os"

	"golang.org/x/sys/unix"
)

func lockFileExclusive(lockFile *os.File) error {
	for {
		lockError := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX)
		if lockError != unix.EINTR {
			return lockError
		}
	}
}

func unlockFile(lockFile *os.File) error {
	return unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
}
