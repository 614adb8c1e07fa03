package repository

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/execshell"
)

const (
	notRepositoryExitCodeConstant        = 129
	executorNotConfiguredMessageConstant = "git executor not configured"
	queryFailedMessageConstant           = "git query failed; using default value"
	inspectionCancelledMessageConstant   = "repository inspection cancelled"
	logFieldRepositoryPathConstant       = "repository_path"
	logFieldOperationConstant            = "operation"
	logFieldRemoteConstant               = "remote"
	logFieldBranchConstant               = "branch"
	logFieldSubmodulePathConstant        = "submodule_path"
	inspectingSubmoduleMessageConstant   = "inspecting submodule"
)

// ErrExecutorNotConfigured indicates a component was constructed without a git executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// InspectorOption customizes an Inspector.
type InspectorOption func(inspector *Inspector)

// WithSubmoduleInspection enables recursive inspection of submodules listed in .gitmodules.
func WithSubmoduleInspection(enabled bool) InspectorOption {
	return func(inspector *Inspector) {
		inspector.inspectSubmodules = enabled
	}
}

// Inspector builds RepositoryInfo snapshots by issuing read-only git queries.
type Inspector struct {
	executor          GitExecutor
	commands          CommandTable
	logger            *zap.Logger
	inspectSubmodules bool
}

// NewInspector constructs an Inspector. A nil logger discards diagnostics.
func NewInspector(executor GitExecutor, commands CommandTable, logger *zap.Logger, options ...InspectorOption) (*Inspector, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	inspector := &Inspector{executor: executor, commands: commands, logger: logger}
	for _, option := range options {
		if option != nil {
			option(inspector)
		}
	}
	return inspector, nil
}

// Inspect queries the checkout at repositoryPath. A failing query leaves its field at the default value.
func (inspector *Inspector) Inspect(executionContext context.Context, repositoryPath string) RepositoryInfo {
	info := RepositoryInfo{Name: filepath.Base(filepath.Clean(repositoryPath)), Path: repositoryPath}

	probeResult, probeSucceeded := inspector.query(executionContext, repositoryPath, OperationIndexProbe, TemplateParameters{}, execshell.RedirectAllToNull)
	if !probeSucceeded || probeResult.ExitCode == notRepositoryExitCodeConstant {
		return info
	}
	info.IsRepository = true
	info.UncommittedChanges = probeResult.ExitCode != 0

	unstagedResult, _ := inspector.query(executionContext, repositoryPath, OperationUnstagedChanges, TemplateParameters{}, execshell.RedirectErrorToOutput)
	info.UnstagedChanges = HasOutput(unstagedResult.StandardOutput)

	untrackedResult, _ := inspector.query(executionContext, repositoryPath, OperationUntrackedFiles, TemplateParameters{}, execshell.RedirectErrorToNull)
	info.UntrackedFiles = HasOutput(untrackedResult.StandardOutput)

	remotesResult, _ := inspector.query(executionContext, repositoryPath, OperationListRemotes, TemplateParameters{}, execshell.RedirectErrorToNull)
	branchesResult, _ := inspector.query(executionContext, repositoryPath, OperationListBranches, TemplateParameters{}, execshell.RedirectErrorToNull)

	info.Branches = inspector.collectLocalBranches(executionContext, repositoryPath, SplitLines(branchesResult.StandardOutput))
	info.Remotes = inspector.collectRemotes(executionContext, repositoryPath, SplitLines(remotesResult.StandardOutput))

	if inspector.inspectSubmodules {
		info.SubModules = inspector.collectSubmodules(executionContext, repositoryPath)
	}

	return info
}

func (inspector *Inspector) collectLocalBranches(executionContext context.Context, repositoryPath string, branchLines []string) []BranchInfo {
	var branches []BranchInfo
	for _, branchLine := range branchLines {
		branchName, valid := CleanBranchName(branchLine)
		if !valid {
			continue
		}
		if inspector.cancelled(executionContext, repositoryPath) {
			break
		}
		branches = append(branches, BranchInfo{
			Name: branchName,
			Hash: inspector.resolveHash(executionContext, repositoryPath, OperationResolveLocalHead, TemplateParameters{Branch: branchName}),
		})
	}
	return branches
}

func (inspector *Inspector) collectRemotes(executionContext context.Context, repositoryPath string, remoteNames []string) []RemoteInfo {
	if len(remoteNames) == 0 {
		return nil
	}

	remoteBranchesResult, _ := inspector.query(executionContext, repositoryPath, OperationListRemoteBranches, TemplateParameters{}, execshell.RedirectErrorToNull)
	remoteBranchLines := SplitLines(remoteBranchesResult.StandardOutput)

	remotes := make([]RemoteInfo, 0, len(remoteNames))
	for _, remoteName := range remoteNames {
		remote := RemoteInfo{Name: remoteName}
		seenBranches := make(map[string]struct{})
		for _, remoteBranchLine := range remoteBranchLines {
			branchName, belongs := RemoteBranchName(remoteName, remoteBranchLine)
			if !belongs {
				continue
			}
			if _, seen := seenBranches[branchName]; seen {
				continue
			}
			if inspector.cancelled(executionContext, repositoryPath) {
				break
			}
			seenBranches[branchName] = struct{}{}
			remote.Branches = append(remote.Branches, BranchInfo{
				Name: branchName,
				Hash: inspector.resolveHash(executionContext, repositoryPath, OperationResolveRemoteHead, TemplateParameters{Remote: remoteName, Branch: branchName}),
			})
		}
		remotes = append(remotes, remote)
	}
	return remotes
}

func (inspector *Inspector) collectSubmodules(executionContext context.Context, repositoryPath string) []RepositoryInfo {
	submodulesResult, _ := inspector.query(executionContext, repositoryPath, OperationListSubmodules, TemplateParameters{}, execshell.RedirectErrorToNull)

	var submodules []RepositoryInfo
	for _, submodulePath := range ParseSubmodulePaths(submodulesResult.StandardOutput) {
		if inspector.cancelled(executionContext, repositoryPath) {
			break
		}
		inspector.logger.Debug(inspectingSubmoduleMessageConstant,
			zap.String(logFieldRepositoryPathConstant, repositoryPath),
			zap.String(logFieldSubmodulePathConstant, submodulePath),
		)
		submodules = append(submodules, inspector.Inspect(executionContext, filepath.Join(repositoryPath, filepath.FromSlash(submodulePath))))
	}
	return submodules
}

func (inspector *Inspector) resolveHash(executionContext context.Context, repositoryPath string, operation Operation, parameters TemplateParameters) string {
	result, succeeded := inspector.query(executionContext, repositoryPath, operation, parameters, execshell.RedirectErrorToNull)
	if !succeeded || result.ExitCode != 0 {
		return ""
	}
	return ParseHash(result.StandardOutput)
}

// query runs one git operation. The boolean is false when git could not be run at all; non-zero
// exit codes are returned to the caller for interpretation.
func (inspector *Inspector) query(executionContext context.Context, repositoryPath string, operation Operation, parameters TemplateParameters, redirect execshell.RedirectMode) (execshell.ExecutionResult, bool) {
	result, executionError := execshell.ToleratingExitCode(inspector.executor.ExecuteGit(executionContext,
		scopedCommand(repositoryPath, inspector.commands.Arguments(operation, parameters), redirect)))
	if executionError != nil {
		inspector.logger.Warn(queryFailedMessageConstant,
			zap.String(logFieldRepositoryPathConstant, repositoryPath),
			zap.String(logFieldOperationConstant, string(operation)),
			zap.String(logFieldRemoteConstant, parameters.Remote),
			zap.String(logFieldBranchConstant, parameters.Branch),
			zap.Error(executionError),
		)
		return execshell.ExecutionResult{}, false
	}
	return result, true
}

func (inspector *Inspector) cancelled(executionContext context.Context, repositoryPath string) bool {
	if executionContext == nil || executionContext.Err() == nil {
		return false
	}
	inspector.logger.Debug(inspectionCancelledMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath), zap.Error(executionContext.Err()))
	return true
}
