package repository

import (
	"context"

	"github.com/temirov/gitupdater/internal/execshell"
)

const (
	repositoryStatusUpToDateStringConstant            = "up to date"
	repositoryStatusLocalAheadStringConstant          = "local ahead"
	repositoryStatusRemoteAheadStringConstant         = "remote ahead"
	repositoryStatusRemoteMissingBranchStringConstant = "remote missing branch"
	repositoryStatusLocalMissingBranchStringConstant  = "local missing branch"
	repositoryStatusUnknownStringConstant             = "unknown"
	updateOutcomeUpdatedStringConstant                = "updated"
	updateOutcomeFastForwardNotPossibleStringConstant = "fast-forward not possible"
	updateOutcomeUpdateFailedStringConstant           = "update failed"
)

// GitExecutor runs git with the provided invocation details.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// EnvironmentOverlay temporarily adjusts the process environment around credential-bearing git operations.
// Apply returns a function restoring the previous environment.
type EnvironmentOverlay interface {
	Apply() (func(), error)
}

// BranchInfo names a branch and the commit it points to. Hash is empty when unresolved.
type BranchInfo struct {
	Name string
	Hash string
}

// RemoteInfo lists the remote-tracking branches recorded for one remote, in the order git reports them.
type RemoteInfo struct {
	Name     string
	Branches []BranchInfo
}

// Branch looks up a remote-tracking branch by short name.
func (remote RemoteInfo) Branch(branchName string) (BranchInfo, bool) {
	return findBranch(remote.Branches, branchName)
}

// RepositoryInfo is a point-in-time snapshot of one checkout.
// When IsRepository is false only Name and Path are populated.
type RepositoryInfo struct {
	Name               string
	Path               string
	IsRepository       bool
	UntrackedFiles     bool
	UnstagedChanges    bool
	UncommittedChanges bool
	Branches           []BranchInfo
	Remotes            []RemoteInfo
	SubModules         []RepositoryInfo
}

// Branch looks up a local branch by exact name.
func (info RepositoryInfo) Branch(branchName string) (BranchInfo, bool) {
	return findBranch(info.Branches, branchName)
}

// Remote looks up a remote by exact name.
func (info RepositoryInfo) Remote(remoteName string) (RemoteInfo, bool) {
	for _, remote := range info.Remotes {
		if remote.Name == remoteName {
			return remote, true
		}
	}
	return RemoteInfo{}, false
}

// HasLocalChanges reports whether the working tree or index differs from HEAD or holds untracked files.
func (info RepositoryInfo) HasLocalChanges() bool {
	return info.UncommittedChanges || info.UnstagedChanges || info.UntrackedFiles
}

func findBranch(branches []BranchInfo, branchName string) (BranchInfo, bool) {
	for _, branch := range branches {
		if branch.Name == branchName {
			return branch, true
		}
	}
	return BranchInfo{}, false
}

// RepositoryStatus classifies a local branch against its remote-tracking counterpart.
type RepositoryStatus int

// Repository statuses.
const (
	UpToDate RepositoryStatus = iota
	LocalAhead
	RemoteAhead
	RemoteMissingBranch
	LocalMissingBranch
)

// String returns a stable human-readable status name.
func (status RepositoryStatus) String() string {
	switch status {
	case UpToDate:
		return repositoryStatusUpToDateStringConstant
	case LocalAhead:
		return repositoryStatusLocalAheadStringConstant
	case RemoteAhead:
		return repositoryStatusRemoteAheadStringConstant
	case RemoteMissingBranch:
		return repositoryStatusRemoteMissingBranchStringConstant
	case LocalMissingBranch:
		return repositoryStatusLocalMissingBranchStringConstant
	default:
		return repositoryStatusUnknownStringConstant
	}
}

// FetchFailure attributes one failure marker line to the remote being fetched when it appeared.
type FetchFailure struct {
	Remote string
	Line   string
}

// FetchReport summarizes a fetch of every remote.
type FetchReport struct {
	Success     bool
	ErrorReport string
	Failures    []FetchFailure
}

// UpdateOutcome reports the result of a fast-forward update.
type UpdateOutcome int

// Update outcomes.
const (
	Updated UpdateOutcome = iota
	FastForwardNotPossible
	UpdateFailed
)

// String returns a stable human-readable outcome name.
func (outcome UpdateOutcome) String() string {
	switch outcome {
	case Updated:
		return updateOutcomeUpdatedStringConstant
	case FastForwardNotPossible:
		return updateOutcomeFastForwardNotPossibleStringConstant
	default:
		return updateOutcomeUpdateFailedStringConstant
	}
}
