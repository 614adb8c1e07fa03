package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/execshell"
)

const (
	ancestryQueryFailedTemplateConstant = "failed to list ancestry of %s/%s in %s: %w"
	headsComparedMessageConstant        = "heads compared"
	logFieldStatusConstant              = "status"
)

// ClassifyAncestry places localHead within ancestry, the most-recent-first commit list of the
// remote-tracking branch. An ambiguous-argument failure line anywhere in the list means the remote
// branch is missing. Otherwise the first position holding localHead decides: index 0 is UpToDate,
// any later index is RemoteAhead, and absence is LocalAhead.
func ClassifyAncestry(localHead string, ancestry []string) RepositoryStatus {
	for _, ancestryLine := range ancestry {
		if strings.HasPrefix(ancestryLine, ambiguousArgumentMarkerConstant) {
			return RemoteMissingBranch
		}
	}
	for ancestryIndex, commitHash := range ancestry {
		if commitHash != localHead {
			continue
		}
		if ancestryIndex == 0 {
			return UpToDate
		}
		return RemoteAhead
	}
	return LocalAhead
}

// HeadReconciler compares local branch heads with remote-tracking ancestry.
type HeadReconciler struct {
	executor GitExecutor
	commands CommandTable
	logger   *zap.Logger
}

// NewHeadReconciler constructs a HeadReconciler.
func NewHeadReconciler(executor GitExecutor, commands CommandTable, logger *zap.Logger) (*HeadReconciler, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeadReconciler{executor: executor, commands: commands, logger: logger}, nil
}

// CompareHeads classifies branch in info against remoteName/branch. A branch missing locally returns
// LocalMissingBranch without running git. An error is returned only when git could not be run.
func (reconciler *HeadReconciler) CompareHeads(executionContext context.Context, info RepositoryInfo, remoteName string, branchName string) (RepositoryStatus, error) {
	localBranch, exists := info.Branch(branchName)
	if !exists {
		return LocalMissingBranch, nil
	}

	result, executionError := execshell.ToleratingExitCode(reconciler.executor.ExecuteGit(executionContext,
		scopedCommand(info.Path, reconciler.commands.Arguments(OperationRemoteAncestry, TemplateParameters{Remote: remoteName, Branch: branchName}), execshell.RedirectErrorToOutput)))
	if executionError != nil {
		return LocalMissingBranch, fmt.Errorf(ancestryQueryFailedTemplateConstant, remoteName, branchName, info.Path, executionError)
	}

	status := ClassifyAncestry(localBranch.Hash, SplitLines(result.StandardOutput))
	reconciler.logger.Debug(headsComparedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, info.Path),
		zap.String(logFieldRemoteConstant, remoteName),
		zap.String(logFieldBranchConstant, branchName),
		zap.Stringer(logFieldStatusConstant, status),
	)
	return status, nil
}
