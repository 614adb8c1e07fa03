package pathutils

import (
	"path/filepath"
	"strings"
)

const currentDirectoryPathConstant = "."

// DirectoryResolver turns user supplied directory arguments into clean absolute paths.
type DirectoryResolver struct {
	homeExpander *HomeExpander
}

// NewDirectoryResolver constructs a DirectoryResolver. A nil expander uses the operating system home lookup.
func NewDirectoryResolver(homeExpander *HomeExpander) *DirectoryResolver {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &DirectoryResolver{homeExpander: homeExpander}
}

// Resolve trims the candidate, expands the home directory, and returns an absolute cleaned path.
// An empty candidate resolves to the current directory.
func (resolver *DirectoryResolver) Resolve(candidatePath string) (string, error) {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		trimmedCandidate = currentDirectoryPathConstant
	}
	if resolver != nil {
		trimmedCandidate = resolver.homeExpander.Expand(trimmedCandidate)
	}
	return filepath.Abs(trimmedCandidate)
}
