package repository

import (
	"path/filepath"

	"github.com/temirov/gitupdater/internal/execshell"
)

// ceilingDirectoriesVariableName bounds git's upward search for a .git directory.
const ceilingDirectoriesVariableName = "GIT_CEILING_DIRECTORIES"

// scopedCommand binds arguments to the directory at repositoryPath. Its parent is a discovery
// ceiling, so git only recognises a checkout rooted at repositoryPath itself and never one
// enclosing it.
func scopedCommand(repositoryPath string, arguments []string, redirect execshell.RedirectMode) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{ceilingDirectoriesVariableName: CeilingDirectory(repositoryPath)},
		Redirect:             redirect,
	}
}

// CeilingDirectory returns the absolute parent of repositoryPath.
func CeilingDirectory(repositoryPath string) string {
	absolutePath, absoluteError := filepath.Abs(repositoryPath)
	if absoluteError != nil {
		absolutePath = filepath.Clean(repositoryPath)
	}
	return filepath.Dir(absolutePath)
}
