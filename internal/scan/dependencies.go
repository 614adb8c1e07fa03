package scan

import (
	"context"

	"github.com/temirov/gitupdater/internal/repository"
)

// DirectoryLister enumerates candidate directories and reports ignore markers.
type DirectoryLister interface {
	ListSubdirectories(searchPath string) ([]string, error)
	HasIgnoreMarker(directoryPath string) (bool, error)
}

// RepositoryInspector builds a RepositoryInfo for a directory.
type RepositoryInspector interface {
	Inspect(executionContext context.Context, repositoryPath string) repository.RepositoryInfo
}

// RemoteFetcher fetches all remotes of a checkout.
type RemoteFetcher interface {
	FetchAll(executionContext context.Context, repositoryPath string) repository.FetchReport
}

// HeadComparer classifies a local branch against a remote.
type HeadComparer interface {
	CompareHeads(executionContext context.Context, info repository.RepositoryInfo, remoteName string, branchName string) (repository.RepositoryStatus, error)
}

// BranchSynchronizer fast-forwards the side of a branch pair that is behind.
type BranchSynchronizer interface {
	UpdateLocal(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (repository.UpdateOutcome, error)
	UpdateRemote(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (repository.UpdateOutcome, error)
}
