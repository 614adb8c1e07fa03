package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/execshell"
)

const (
	fastForwardNotPossibleExitCodeConstant = 1
	fastForwardRefusedMarkerConstant       = "not possible to fast-forward"
	detachedHeadNameConstant               = "HEAD"
	updateExecutionFailedTemplateConstant  = "failed to run %s for %s/%s in %s: %w"
	updateOverlayFailedTemplateConstant    = "failed to apply askpass environment for %s in %s: %w"
	updateCompletedMessageConstant         = "branch update completed"
	logFieldOutcomeConstant                = "outcome"
)

// ClassifyUpdateExitCode maps the exit code of a push-equivalent update onto an UpdateOutcome.
func ClassifyUpdateExitCode(exitCode int) UpdateOutcome {
	switch exitCode {
	case 0:
		return Updated
	case fastForwardNotPossibleExitCodeConstant:
		return FastForwardNotPossible
	default:
		return UpdateFailed
	}
}

// BranchUpdater fast-forwards a local branch to its remote-tracking head or publishes a local
// branch to its remote.
type BranchUpdater struct {
	executor GitExecutor
	commands CommandTable
	overlay  EnvironmentOverlay
	logger   *zap.Logger
}

// NewBranchUpdater constructs a BranchUpdater. The overlay is applied around remote updates only.
func NewBranchUpdater(executor GitExecutor, commands CommandTable, overlay EnvironmentOverlay, logger *zap.Logger) (*BranchUpdater, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchUpdater{executor: executor, commands: commands, overlay: overlay, logger: logger}, nil
}

// ClassifyCurrentBranchUpdate maps the result of a fast-forward-only merge onto an UpdateOutcome.
// Git reports a refused fast-forward with a generic fatal exit code, so the message decides.
func ClassifyCurrentBranchUpdate(exitCode int, output string) UpdateOutcome {
	switch {
	case exitCode == 0:
		return Updated
	case strings.Contains(strings.ToLower(output), fastForwardRefusedMarkerConstant):
		return FastForwardNotPossible
	default:
		return UpdateFailed
	}
}

// UpdateLocal moves refs/heads/<branch> to refs/remotes/<remote>/<branch> when that is a fast-forward.
// The checked-out branch is merged with --ff-only so its working tree follows; any other branch
// is moved with a ref-only push.
func (updater *BranchUpdater) UpdateLocal(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (UpdateOutcome, error) {
	currentBranch, resolveError := updater.currentBranch(executionContext, repositoryPath)
	if resolveError != nil {
		return UpdateFailed, fmt.Errorf(updateExecutionFailedTemplateConstant, OperationCurrentBranch, remoteName, branchName, repositoryPath, resolveError)
	}
	if currentBranch == branchName {
		return updater.run(executionContext, OperationUpdateCurrent, repositoryPath, remoteName, branchName)
	}
	return updater.run(executionContext, OperationUpdateLocal, repositoryPath, remoteName, branchName)
}

// UpdateRemote pushes branch to remote while the askpass overlay is active.
func (updater *BranchUpdater) UpdateRemote(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (UpdateOutcome, error) {
	restore, overlayError := applyOverlay(updater.overlay)
	if overlayError != nil {
		return UpdateFailed, fmt.Errorf(updateOverlayFailedTemplateConstant, OperationUpdateRemote, repositoryPath, overlayError)
	}
	defer restore()
	return updater.run(executionContext, OperationUpdateRemote, repositoryPath, remoteName, branchName)
}

// currentBranch names the branch HEAD points at. A detached or unborn HEAD yields an empty name.
func (updater *BranchUpdater) currentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := execshell.ToleratingExitCode(updater.executor.ExecuteGit(executionContext,
		scopedCommand(repositoryPath, updater.commands.Arguments(OperationCurrentBranch, TemplateParameters{}), execshell.RedirectErrorToNull)))
	if executionError != nil {
		return "", executionError
	}
	branchName := strings.TrimSpace(result.StandardOutput)
	if result.ExitCode != 0 || branchName == detachedHeadNameConstant {
		return "", nil
	}
	return branchName, nil
}

func (updater *BranchUpdater) run(executionContext context.Context, operation Operation, repositoryPath string, remoteName string, branchName string) (UpdateOutcome, error) {
	result, executionError := execshell.ToleratingExitCode(updater.executor.ExecuteGit(executionContext,
		scopedCommand(repositoryPath, updater.commands.Arguments(operation, TemplateParameters{Remote: remoteName, Branch: branchName}), execshell.RedirectErrorToOutput)))
	if executionError != nil {
		return UpdateFailed, fmt.Errorf(updateExecutionFailedTemplateConstant, operation, remoteName, branchName, repositoryPath, executionError)
	}

	outcome := ClassifyUpdateExitCode(result.ExitCode)
	if operation == OperationUpdateCurrent {
		outcome = ClassifyCurrentBranchUpdate(result.ExitCode, result.StandardOutput)
	}
	updater.logger.Debug(updateCompletedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.String(logFieldOperationConstant, string(operation)),
		zap.String(logFieldRemoteConstant, remoteName),
		zap.String(logFieldBranchConstant, branchName),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.Stringer(logFieldOutcomeConstant, outcome),
	)
	return outcome, nil
}
