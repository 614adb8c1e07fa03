package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultSegmentName prefixes the per-run segment names produced by RunSegmentName.
	DefaultSegmentName = "gitupdater-credentials"
	// DefaultSegmentSize bounds the encoded credential snapshot in bytes.
	DefaultSegmentSize = 4096

	sharedMemoryDirectoryConstant         = "/dev/shm"
	runSegmentNameTemplateConstant        = "%s-%d-%d"
	processSegmentNameTemplateConstant    = "%s-%d"
	temporarySegmentPatternSuffixConstant = ".*.tmp"
	segmentNotFoundMessageConstant        = "credential segment not found"
	segmentCapacityMessageConstant        = "credential snapshot exceeds segment capacity"
	segmentClosedMessageConstant          = "credential segment closed"
	invalidSegmentNameMessageConstant     = "invalid credential segment name"
	segmentNotFoundTemplateConstant       = "%w: %s"
	segmentCapacityTemplateConstant       = "%w: %d bytes exceeds %d"
	invalidSegmentNameTemplateConstant    = "%w: %q"
	createSegmentErrorTemplateConstant    = "failed to create credential segment %s: %w"
	readSegmentErrorTemplateConstant      = "failed to read credential segment %s: %w"
	writeSegmentErrorTemplateConstant     = "failed to write credential segment %s: %w"
	removeSegmentErrorTemplateConstant    = "failed to remove credential segment %s: %w"
)

var (
	// ErrSegmentNotFound indicates Attach found no segment published by a parent process.
	ErrSegmentNotFound = errors.New(segmentNotFoundMessageConstant)
	// ErrSegmentCapacityExceeded indicates the encoded snapshot would not fit the configured segment size.
	ErrSegmentCapacityExceeded = errors.New(segmentCapacityMessageConstant)
	// ErrSegmentClosed indicates an operation on a segment after Close.
	ErrSegmentClosed = errors.New(segmentClosedMessageConstant)
	// ErrInvalidSegmentName indicates a segment name containing path separators.
	ErrInvalidSegmentName = errors.New(invalidSegmentNameMessageConstant)
)

// SegmentOptions locates and sizes a credential segment. Zero values select the defaults.
type SegmentOptions struct {
	Name      string
	Directory string
	Size      int
}

// DefaultSegmentDirectory prefers the shared memory file system and falls back to the temporary directory.
func DefaultSegmentDirectory() string {
	if directoryInfo, statError := os.Stat(sharedMemoryDirectoryConstant); statError == nil && directoryInfo.IsDir() {
		return sharedMemoryDirectoryConstant
	}
	return os.TempDir()
}

// RunSegmentName names the segment owned by processID for the current user. Helpers cannot derive
// it themselves and receive it from the owning run.
func RunSegmentName(processID int) string {
	userID := os.Getuid()
	if userID < 0 {
		return fmt.Sprintf(processSegmentNameTemplateConstant, DefaultSegmentName, processID)
	}
	return fmt.Sprintf(runSegmentNameTemplateConstant, DefaultSegmentName, userID, processID)
}

func (options SegmentOptions) resolve() (string, int, error) {
	segmentName := strings.TrimSpace(options.Name)
	if len(segmentName) == 0 {
		segmentName = RunSegmentName(os.Getpid())
	}
	if strings.ContainsAny(segmentName, `/\`) || segmentName == "." || segmentName == ".." {
		return "", 0, fmt.Errorf(invalidSegmentNameTemplateConstant, ErrInvalidSegmentName, segmentName)
	}

	segmentDirectory := strings.TrimSpace(options.Directory)
	if len(segmentDirectory) == 0 {
		segmentDirectory = DefaultSegmentDirectory()
	}

	segmentSize := options.Size
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}
	return filepath.Join(segmentDirectory, segmentName), segmentSize, nil
}

// Segment is a named, lock-guarded, fixed-capacity file holding the encoded credential snapshot.
// The owning process created it with Open and removes it on Close; attached processes never remove it.
type Segment struct {
	path   string
	size   int
	owner  bool
	closed bool
	lock   segmentLock
}

// Open creates or resets the segment with an empty snapshot. The caller owns the segment.
func Open(options SegmentOptions) (*Segment, error) {
	segmentPath, segmentSize, resolveError := options.resolve()
	if resolveError != nil {
		return nil, resolveError
	}

	segment := &Segment{path: segmentPath, size: segmentSize, owner: true, lock: newSegmentLock(segmentPath)}
	initializeError := segment.lock.withLock(func() error {
		return segment.writeSnapshot(map[string]string{})
	})
	if initializeError != nil {
		return nil, fmt.Errorf(createSegmentErrorTemplateConstant, segmentPath, initializeError)
	}
	return segment, nil
}

// Attach opens a segment previously created by Open in another process.
func Attach(options SegmentOptions) (*Segment, error) {
	segmentPath, segmentSize, resolveError := options.resolve()
	if resolveError != nil {
		return nil, resolveError
	}

	if _, statError := os.Stat(segmentPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil, fmt.Errorf(segmentNotFoundTemplateConstant, ErrSegmentNotFound, segmentPath)
		}
		return nil, fmt.Errorf(readSegmentErrorTemplateConstant, segmentPath, statError)
	}
	return &Segment{path: segmentPath, size: segmentSize, lock: newSegmentLock(segmentPath)}, nil
}

// Path returns the file system location of the segment.
func (segment *Segment) Path() string {
	return segment.path
}

// Name returns the file name of the segment within its directory.
func (segment *Segment) Name() string {
	return filepath.Base(segment.path)
}

// Directory returns the directory holding the segment.
func (segment *Segment) Directory() string {
	return filepath.Dir(segment.path)
}

// Owner reports whether this handle created the segment.
func (segment *Segment) Owner() bool {
	return segment.owner
}

// Load returns the current snapshot under the lock.
func (segment *Segment) Load() (map[string]string, error) {
	if segment.closed {
		return nil, ErrSegmentClosed
	}
	var snapshot map[string]string
	loadError := segment.lock.withLock(func() error {
		var readError error
		snapshot, readError = segment.readSnapshot()
		return readError
	})
	if loadError != nil {
		return nil, loadError
	}
	return snapshot, nil
}

// Update applies mutate to the current snapshot and republishes it, all under one lock acquisition.
func (segment *Segment) Update(mutate func(snapshot map[string]string)) error {
	if segment.closed {
		return ErrSegmentClosed
	}
	return segment.lock.withLock(func() error {
		snapshot, readError := segment.readSnapshot()
		if readError != nil {
			return readError
		}
		mutate(snapshot)
		return segment.writeSnapshot(snapshot)
	})
}

// Close releases the handle. The owner also removes the segment and its lock file.
func (segment *Segment) Close() error {
	if segment.closed {
		return nil
	}
	segment.closed = true
	if !segment.owner {
		return nil
	}

	removeError := os.Remove(segment.path)
	if removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
		return fmt.Errorf(removeSegmentErrorTemplateConstant, segment.path, removeError)
	}
	if lockRemoveError := segment.lock.remove(); lockRemoveError != nil {
		return fmt.Errorf(removeSegmentErrorTemplateConstant, segment.lock.path, lockRemoveError)
	}
	return nil
}

func (segment *Segment) readSnapshot() (map[string]string, error) {
	encoded, readError := os.ReadFile(segment.path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, fmt.Errorf(segmentNotFoundTemplateConstant, ErrSegmentNotFound, segment.path)
		}
		return nil, fmt.Errorf(readSegmentErrorTemplateConstant, segment.path, readError)
	}
	return decodeSnapshot(encoded)
}

func (segment *Segment) writeSnapshot(snapshot map[string]string) error {
	encoded, encodeError := encodeSnapshot(snapshot)
	if encodeError != nil {
		return encodeError
	}
	if len(encoded) > segment.size {
		return fmt.Errorf(segmentCapacityTemplateConstant, ErrSegmentCapacityExceeded, len(encoded), segment.size)
	}

	temporaryFile, createError := os.CreateTemp(filepath.Dir(segment.path), filepath.Base(segment.path)+temporarySegmentPatternSuffixConstant)
	if createError != nil {
		return fmt.Errorf(writeSegmentErrorTemplateConstant, segment.path, createError)
	}
	temporaryPath := temporaryFile.Name()
	defer os.Remove(temporaryPath)

	if _, writeError := temporaryFile.Write(encoded); writeError != nil {
		temporaryFile.Close()
		return fmt.Errorf(writeSegmentErrorTemplateConstant, segment.path, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return fmt.Errorf(writeSegmentErrorTemplateConstant, segment.path, closeError)
	}
	if renameError := os.Rename(temporaryPath, segment.path); renameError != nil {
		return fmt.Errorf(writeSegmentErrorTemplateConstant, segment.path, renameError)
	}
	return nil
}
