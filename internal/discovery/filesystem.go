package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultIgnoreMarkerName is the file whose presence excludes a directory from scanning.
	DefaultIgnoreMarkerName             = ".ignore"
	listSubdirectoriesErrorTemplate     = "failed to list subdirectories of %s: %w"
	ignoreMarkerInspectionErrorTemplate = "failed to inspect ignore marker %s: %w"
)

// DirectoryLister enumerates candidate checkout directories beneath a search path.
type DirectoryLister struct {
	ignoreMarkerName string
}

// NewDirectoryLister constructs a lister honoring the provided ignore marker name.
// An empty name falls back to DefaultIgnoreMarkerName.
func NewDirectoryLister(ignoreMarkerName string) *DirectoryLister {
	trimmedMarkerName := strings.TrimSpace(ignoreMarkerName)
	if len(trimmedMarkerName) == 0 {
		trimmedMarkerName = DefaultIgnoreMarkerName
	}
	return &DirectoryLister{ignoreMarkerName: trimmedMarkerName}
}

// ListSubdirectories returns the names of the immediate subdirectories of searchPath, sorted.
// Symbolic links are followed; dangling links are skipped.
func (lister *DirectoryLister) ListSubdirectories(searchPath string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(searchPath)
	if readError != nil {
		return nil, fmt.Errorf(listSubdirectoriesErrorTemplate, searchPath, readError)
	}

	subdirectoryNames := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			subdirectoryNames = append(subdirectoryNames, directoryEntry.Name())
			continue
		}
		if directoryEntry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		targetInfo, statError := os.Stat(filepath.Join(searchPath, directoryEntry.Name()))
		if statError != nil || !targetInfo.IsDir() {
			continue
		}
		subdirectoryNames = append(subdirectoryNames, directoryEntry.Name())
	}

	sort.Strings(subdirectoryNames)
	return subdirectoryNames, nil
}

// HasIgnoreMarker reports whether directoryPath contains the ignore marker file.
func (lister *DirectoryLister) HasIgnoreMarker(directoryPath string) (bool, error) {
	markerPath := filepath.Join(directoryPath, lister.IgnoreMarkerName())
	_, statError := os.Stat(markerPath)
	if statError == nil {
		return true, nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf(ignoreMarkerInspectionErrorTemplate, markerPath, statError)
}

// IgnoreMarkerName returns the marker file name honored by the lister.
func (lister *DirectoryLister) IgnoreMarkerName() string {
	if lister == nil || len(lister.ignoreMarkerName) == 0 {
		return DefaultIgnoreMarkerName
	}
	return lister.ignoreMarkerName
}
