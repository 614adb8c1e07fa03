package repository

import (
	"strings"
)

const (
	lineSeparatorConstant              = "\n"
	lineTrimCharactersConstant         = " \t\r"
	currentBranchMarkerConstant        = "*"
	worktreeBranchMarkerConstant       = "+"
	detachedHeadPrefixConstant         = "("
	remoteNamespaceSeparatorConstant   = "/"
	fatalMarkerConstant                = "fatal:"
	ambiguousArgumentMarkerConstant    = "fatal: ambiguous argument"
	fetchingMarkerConstant             = "Fetching"
	submoduleKeyValueSeparatorConstant = " "
)

// SplitLines returns the trimmed, non-empty lines of command output.
func SplitLines(output string) []string {
	rawLines := strings.Split(output, lineSeparatorConstant)
	lines := make([]string, 0, len(rawLines))
	for _, rawLine := range rawLines {
		trimmedLine := strings.Trim(rawLine, lineTrimCharactersConstant)
		if len(trimmedLine) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}

// HasOutput reports whether command output contains anything besides whitespace.
func HasOutput(output string) bool {
	return len(strings.TrimSpace(output)) > 0
}

// CleanBranchName strips the current-branch or other-worktree marker from a "git branch" line.
// Detached HEAD lines such as "* (HEAD detached at 1a2b3c)" yield false.
func CleanBranchName(line string) (string, bool) {
	branchName := strings.TrimSpace(line)
	for _, marker := range []string{currentBranchMarkerConstant, worktreeBranchMarkerConstant} {
		if strings.HasPrefix(branchName, marker) {
			branchName = strings.TrimSpace(strings.TrimPrefix(branchName, marker))
			break
		}
	}
	if len(branchName) == 0 || strings.HasPrefix(branchName, detachedHeadPrefixConstant) {
		return "", false
	}
	return branchName, true
}

// RemoteBranchName extracts the short branch name from a "git branch -r" line when the line
// belongs to remoteName. The namespace before the first "/" must equal remoteName exactly; the
// short name is the text after the last "/", so "origin/HEAD -> origin/master" yields "master".
func RemoteBranchName(remoteName string, line string) (string, bool) {
	trimmedLine := strings.TrimSpace(line)
	separatorIndex := strings.Index(trimmedLine, remoteNamespaceSeparatorConstant)
	if separatorIndex <= 0 || trimmedLine[:separatorIndex] != remoteName {
		return "", false
	}
	shortName := strings.TrimSpace(trimmedLine[strings.LastIndex(trimmedLine, remoteNamespaceSeparatorConstant)+1:])
	if len(shortName) == 0 {
		return "", false
	}
	return shortName, true
}

// ParseHash returns the commit identifier printed by rev-parse, or an empty string when the output
// carries no identifier.
func ParseHash(output string) string {
	lines := SplitLines(output)
	if len(lines) == 0 || strings.HasPrefix(lines[0], fatalMarkerConstant) {
		return ""
	}
	return lines[0]
}

// ParseSubmodulePaths extracts paths from "git config --get-regexp path" output, whose lines read
// "submodule.<name>.path <path>".
func ParseSubmodulePaths(output string) []string {
	var submodulePaths []string
	for _, line := range SplitLines(output) {
		separatorIndex := strings.Index(line, submoduleKeyValueSeparatorConstant)
		if separatorIndex < 0 {
			continue
		}
		submodulePath := strings.TrimSpace(line[separatorIndex+1:])
		if len(submodulePath) == 0 {
			continue
		}
		submodulePaths = append(submodulePaths, submodulePath)
	}
	return submodulePaths
}
