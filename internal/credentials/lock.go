package credentials

import (
	"fmt"
	"os"
)

const (
	lockFileSuffixConstant            = ".lock"
	lockFilePermissionsConstant       = 0o600
	openLockFileErrorTemplateConstant = "failed to open credential lock %s: %w"
	acquireLockErrorTemplateConstant  = "failed to acquire credential lock %s: %w"
	releaseLockErrorTemplateConstant  = "failed to release credential lock %s: %w"
)

// segmentLock is an exclusive cross-process lock held on a companion file of the segment.
type segmentLock struct {
	path string
}

func newSegmentLock(segmentPath string) segmentLock {
	return segmentLock{path: segmentPath + lockFileSuffixConstant}
}

// withLock runs operation while holding the exclusive lock.
func (lock segmentLock) withLock(operation func() error) (operationError error) {
	lockFile, openError := os.OpenFile(lock.path, os.O_CREATE|os.O_RDWR, lockFilePermissionsConstant)
	if openError != nil {
		return fmt.Errorf(openLockFileErrorTemplateConstant, lock.path, openError)
	}
	defer lockFile.Close()

	if acquireError := lockFileExclusive(lockFile); acquireError != nil {
		return fmt.Errorf(acquireLockErrorTemplateConstant, lock.path, acquireError)
	}
	defer func() {
		if releaseError := unlockFile(lockFile); releaseError != nil && operationError == nil {
			operationError = fmt.Errorf(releaseLockErrorTemplateConstant, lock.path, releaseError)
		}
	}()

	return operation()
}

func (lock segmentLock) remove() error {
	removeError := os.Remove(lock.path)
	if removeError != nil && !os.IsNotExist(removeError) {
		return removeError
	}
	return nil
}
