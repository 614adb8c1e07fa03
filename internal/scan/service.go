package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/execshell"
	"github.com/temirov/gitupdater/internal/repository"
)

const (
	gitExecutorNotConfiguredMessageConstant = "git executor not configured"
	listerNotConfiguredMessageConstant      = "directory lister not configured"
	inspectorNotConfiguredMessageConstant   = "repository inspector not configured"
	fetcherNotConfiguredMessageConstant     = "remote fetcher not configured"
	comparerNotConfiguredMessageConstant    = "head comparer not configured"
	updaterNotConfiguredMessageConstant     = "branch updater not configured"
	gitUnavailableMessageConstant           = "Failed to find git.  Make sure it is installed and on your path."
	gitUnavailableErrorTemplateConstant     = "%w: %w"
	listDirectoriesErrorTemplateConstant    = "unable to scan %s: %w"

	notRepositoryTemplateConstant          = "%s is not a git repository\n"
	repositoryNameTemplateConstant         = "%s\n"
	uncommittedChangesLineConstant         = "  -> Uncommitted changes\n"
	unstagedChangesLineConstant            = "  -> Unstaged changes\n"
	untrackedFilesLineConstant             = "  -> Untracked files\n"
	noRemotesTemplateConstant              = "No remotes for %s\n"
	fetchFailedTemplateConstant            = "Failed to fetch remotes for %s\n"
	localAheadTemplateConstant             = "  -> %s is ahead of %s/%s\n"
	remoteAheadTemplateConstant            = "  -> %s is behind %s/%s\n"
	updatedLocalTemplateConstant           = "  -> Fast-forwarded %s to %s/%s\n"
	updatedRemoteTemplateConstant          = "  -> Pushed %s to %s\n"
	fastForwardNotPossibleTemplateConstant = "  -> Fast-forward not possible for %s and %s/%s\n"
	updateFailedTemplateConstant           = "  -> Failed to update %s and %s/%s\n"
	noRepositoriesTemplateConstant         = "Failed to find any git repositories under '%s'\n"
	repositoryCountTemplateConstant        = "\nFound %d git repositories\n"
	submoduleNameTemplateConstant          = "%s/%s"

	skippingIgnoredMessageConstant     = "skipping ignored directory"
	ignoreMarkerFailedMessageConstant  = "unable to check ignore marker; scanning directory"
	comparisonFailedMessageConstant    = "unable to compare heads"
	updateFailedMessageConstant        = "unable to update branch"
	remoteBranchMissingMessageConstant = "branch not present on remote"
	scanCompletedMessageConstant       = "scan completed"
	logFieldDirectoryConstant          = "directory"
	logFieldRemoteConstant             = "remote"
	logFieldBranchConstant             = "branch"
	logFieldRepositoryCountConstant    = "repository_count"
	logFieldFetchFailureCountConstant  = "fetch_failure_count"
	logFieldDivergenceCountConstant    = "divergence_count"
)

var (
	// ErrGitExecutorNotConfigured indicates a service without a git executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)
	// ErrDirectoryListerNotConfigured indicates a service without a directory lister.
	ErrDirectoryListerNotConfigured = errors.New(listerNotConfiguredMessageConstant)
	// ErrInspectorNotConfigured indicates a service without a repository inspector.
	ErrInspectorNotConfigured = errors.New(inspectorNotConfiguredMessageConstant)
	// ErrFetcherNotConfigured indicates a service without a remote fetcher.
	ErrFetcherNotConfigured = errors.New(fetcherNotConfiguredMessageConstant)
	// ErrComparerNotConfigured indicates a service without a head comparer.
	ErrComparerNotConfigured = errors.New(comparerNotConfiguredMessageConstant)
	// ErrUpdaterNotConfigured indicates updates were enabled without a branch updater.
	ErrUpdaterNotConfigured = errors.New(updaterNotConfiguredMessageConstant)
	// ErrGitUnavailable indicates "git version" could not be run.
	ErrGitUnavailable = errors.New(gitUnavailableMessageConstant)
)

// Dependencies wires the collaborators of a Service.
type Dependencies struct {
	GitExecutor repository.GitExecutor
	Commands    repository.CommandTable
	Lister      DirectoryLister
	Inspector   RepositoryInspector
	Fetcher     RemoteFetcher
	Comparer    HeadComparer
	Updater     BranchSynchronizer
	Output      io.Writer
	Logger      *zap.Logger
}

// Summary aggregates the outcome of a scan.
type Summary struct {
	RepositoryCount   int
	FetchFailureCount int
	DivergenceCount   int
	UpdatedCount      int
}

// Service drives the per-directory scan loop.
type Service struct {
	dependencies  Dependencies
	configuration Configuration
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies, configuration Configuration) (*Service, error) {
	sanitizedConfiguration := configuration.Sanitize()
	switch {
	case dependencies.GitExecutor == nil:
		return nil, ErrGitExecutorNotConfigured
	case dependencies.Lister == nil:
		return nil, ErrDirectoryListerNotConfigured
	case dependencies.Inspector == nil:
		return nil, ErrInspectorNotConfigured
	case dependencies.Fetcher == nil && sanitizedConfiguration.Fetch:
		return nil, ErrFetcherNotConfigured
	case dependencies.Comparer == nil:
		return nil, ErrComparerNotConfigured
	case dependencies.Updater == nil && (sanitizedConfiguration.UpdateLocal || sanitizedConfiguration.UpdateRemote):
		return nil, ErrUpdaterNotConfigured
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Service{dependencies: dependencies, configuration: sanitizedConfiguration}, nil
}

// Run scans the immediate subdirectories of searchPath in name order.
// It stops early only when git is unavailable, the search path cannot be listed, or the context ends.
func (service *Service) Run(executionContext context.Context, searchPath string) (Summary, error) {
	summary := Summary{}
	output := service.dependencies.Output

	versionLine, versionError := service.gitVersion(executionContext)
	if versionError != nil {
		return summary, versionError
	}
	fmt.Fprintln(output, versionLine)

	directoryNames, listError := service.dependencies.Lister.ListSubdirectories(searchPath)
	if listError != nil {
		return summary, fmt.Errorf(listDirectoriesErrorTemplateConstant, searchPath, listError)
	}

	for _, directoryName := range directoryNames {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}

		directoryPath := filepath.Join(searchPath, directoryName)
		if service.ignored(directoryPath) {
			continue
		}

		info := service.dependencies.Inspector.Inspect(executionContext, directoryPath)
		if !info.IsRepository {
			fmt.Fprintf(output, notRepositoryTemplateConstant, info.Name)
			continue
		}
		summary.RepositoryCount++
		service.processRepository(executionContext, info, &summary)
	}

	if contextError := executionContext.Err(); contextError != nil {
		return summary, contextError
	}

	if summary.RepositoryCount == 0 {
		fmt.Fprintf(output, noRepositoriesTemplateConstant, searchPath)
	} else {
		fmt.Fprintf(output, repositoryCountTemplateConstant, summary.RepositoryCount)
	}

	service.dependencies.Logger.Info(
		scanCompletedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, summary.RepositoryCount),
		zap.Int(logFieldFetchFailureCountConstant, summary.FetchFailureCount),
		zap.Int(logFieldDivergenceCountConstant, summary.DivergenceCount),
	)
	return summary, nil
}

func (service *Service) gitVersion(executionContext context.Context) (string, error) {
	arguments := service.dependencies.Commands.Arguments(repository.OperationVersion, repository.TemplateParameters{})
	result, executionError := service.dependencies.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		return "", fmt.Errorf(gitUnavailableErrorTemplateConstant, ErrGitUnavailable, executionError)
	}
	lines := repository.SplitLines(result.StandardOutput)
	if len(lines) == 0 {
		return "", ErrGitUnavailable
	}
	return lines[0], nil
}

func (service *Service) ignored(directoryPath string) bool {
	hasMarker, markerError := service.dependencies.Lister.HasIgnoreMarker(directoryPath)
	if markerError != nil {
		service.dependencies.Logger.Warn(ignoreMarkerFailedMessageConstant, zap.String(logFieldDirectoryConstant, directoryPath), zap.Error(markerError))
		return false
	}
	if hasMarker {
		service.dependencies.Logger.Debug(skippingIgnoredMessageConstant, zap.String(logFieldDirectoryConstant, directoryPath))
	}
	return hasMarker
}

func (service *Service) processRepository(executionContext context.Context, info repository.RepositoryInfo, summary *Summary) {
	output := service.dependencies.Output

	if info.HasLocalChanges() {
		reportLocalChanges(output, info.Name, info)
		service.reportSubmodules(info)
		return
	}
	service.reportSubmodules(info)

	if len(info.Remotes) == 0 {
		fmt.Fprintf(output, noRemotesTemplateConstant, info.Name)
		return
	}

	if service.configuration.Fetch {
		report := service.dependencies.Fetcher.FetchAll(executionContext, info.Path)
		if !report.Success {
			summary.FetchFailureCount++
			fmt.Fprintf(output, fetchFailedTemplateConstant, info.Name)
			fmt.Fprint(output, report.ErrorReport)
			if len(report.ErrorReport) > 0 && report.ErrorReport[len(report.ErrorReport)-1] != '\n' {
				fmt.Fprintln(output)
			}
			return
		}
	}

	service.reconcileBranches(executionContext, info, summary)
}

func (service *Service) reportSubmodules(info repository.RepositoryInfo) {
	for _, submodule := range info.SubModules {
		if submodule.IsRepository && submodule.HasLocalChanges() {
			reportLocalChanges(service.dependencies.Output, fmt.Sprintf(submoduleNameTemplateConstant, info.Name, submodule.Name), submodule)
		}
	}
}

func reportLocalChanges(output io.Writer, displayName string, info repository.RepositoryInfo) {
	fmt.Fprintf(output, repositoryNameTemplateConstant, displayName)
	if info.UncommittedChanges {
		fmt.Fprint(output, uncommittedChangesLineConstant)
	}
	if info.UnstagedChanges {
		fmt.Fprint(output, unstagedChangesLineConstant)
	}
	if info.UntrackedFiles {
		fmt.Fprint(output, untrackedFilesLineConstant)
	}
}

func (service *Service) reconcileBranches(executionContext context.Context, info repository.RepositoryInfo, summary *Summary) {
	output := service.dependencies.Output
	headerPrinted := false
	printHeader := func() {
		if !headerPrinted {
			fmt.Fprintf(output, repositoryNameTemplateConstant, info.Name)
			headerPrinted = true
		}
	}

	for _, branch := range info.Branches {
		for _, remote := range info.Remotes {
			if executionContext.Err() != nil {
				return
			}

			status, compareError := service.dependencies.Comparer.CompareHeads(executionContext, info, remote.Name, branch.Name)
			if compareError != nil {
				service.dependencies.Logger.Warn(
					comparisonFailedMessageConstant,
					zap.String(logFieldDirectoryConstant, info.Path),
					zap.String(logFieldRemoteConstant, remote.Name),
					zap.String(logFieldBranchConstant, branch.Name),
					zap.Error(compareError),
				)
				continue
			}

			switch status {
			case repository.LocalAhead:
				summary.DivergenceCount++
				printHeader()
				fmt.Fprintf(output, localAheadTemplateConstant, branch.Name, remote.Name, branch.Name)
				if service.configuration.UpdateRemote {
					outcome, updateError := service.dependencies.Updater.UpdateRemote(executionContext, info.Path, remote.Name, branch.Name)
					service.reportUpdate(outcome, updateError, fmt.Sprintf(updatedRemoteTemplateConstant, branch.Name, remote.Name), branch.Name, remote.Name, summary)
				}
			case repository.RemoteAhead:
				summary.DivergenceCount++
				printHeader()
				fmt.Fprintf(output, remoteAheadTemplateConstant, branch.Name, remote.Name, branch.Name)
				if service.configuration.UpdateLocal {
					outcome, updateError := service.dependencies.Updater.UpdateLocal(executionContext, info.Path, remote.Name, branch.Name)
					service.reportUpdate(outcome, updateError, fmt.Sprintf(updatedLocalTemplateConstant, branch.Name, remote.Name, branch.Name), branch.Name, remote.Name, summary)
				}
			case repository.RemoteMissingBranch:
				service.dependencies.Logger.Debug(
					remoteBranchMissingMessageConstant,
					zap.String(logFieldDirectoryConstant, info.Path),
					zap.String(logFieldRemoteConstant, remote.Name),
					zap.String(logFieldBranchConstant, branch.Name),
				)
			}
		}
	}
}

func (service *Service) reportUpdate(outcome repository.UpdateOutcome, updateError error, updatedLine string, branchName string, remoteName string, summary *Summary) {
	output := service.dependencies.Output
	if updateError != nil {
		service.dependencies.Logger.Warn(
			updateFailedMessageConstant,
			zap.String(logFieldRemoteConstant, remoteName),
			zap.String(logFieldBranchConstant, branchName),
			zap.Error(updateError),
		)
	}
	switch outcome {
	case repository.Updated:
		summary.UpdatedCount++
		fmt.Fprint(output, updatedLine)
	case repository.FastForwardNotPossible:
		fmt.Fprintf(output, fastForwardNotPossibleTemplateConstant, branchName, remoteName, branchName)
	default:
		fmt.Fprintf(output, updateFailedTemplateConstant, branchName, remoteName, branchName)
	}
}
