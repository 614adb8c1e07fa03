//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package credentials

import (
	"errors"
	"os"
)

var errLockingUnsupported = errors.New("credential locking is not supported on this platform")

func lockFileExclusive(*os.File) error {
	return errLockingUnsupported
}

func unlockFile(*os.File) error {
	return nil
}
