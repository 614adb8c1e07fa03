package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/execshell"
)

const (
	noRemotesToFetchMessageConstant        = "No remotes to fetch"
	fetchFailureReportLineTemplateConstant = "  Failed to fetch from %s\n"
	fetchExecutionFailureReportTemplate    = "  %s\n"
	fetchOverlayFailureMessageConstant     = "failed to apply askpass environment for fetch"
	fetchExecutionFailureMessageConstant   = "fetch could not be executed"
	fetchCompletedMessageConstant          = "fetch completed"
	logFieldExitCodeConstant               = "exit_code"
	logFieldFetchSuccessConstant           = "success"
	logFieldFetchFailureCountConstant      = "failure_count"
)

// ParseFetchOutput interprets the merged output of "git fetch --all". A "fatal:" line is
// attributed to the nearest preceding "Fetching <remote>" line, or to an empty remote name when
// none preceded it.
func ParseFetchOutput(output string) FetchReport {
	if !HasOutput(output) {
		return FetchReport{Success: false, ErrorReport: noRemotesToFetchMessageConstant}
	}

	report := FetchReport{Success: true}
	var errorReport strings.Builder
	currentRemote := ""
	for _, line := range SplitLines(output) {
		switch {
		case strings.HasPrefix(line, fetchingMarkerConstant):
			currentRemote = strings.TrimSpace(strings.TrimPrefix(line, fetchingMarkerConstant))
		case strings.HasPrefix(line, fatalMarkerConstant):
			report.Success = false
			report.Failures = append(report.Failures, FetchFailure{Remote: currentRemote, Line: line})
			fmt.Fprintf(&errorReport, fetchFailureReportLineTemplateConstant, currentRemote)
		}
	}
	report.ErrorReport = errorReport.String()
	return report
}

// FetchCoordinator fetches every remote of a checkout and aggregates per-remote failures.
type FetchCoordinator struct {
	executor GitExecutor
	commands CommandTable
	overlay  EnvironmentOverlay
	logger   *zap.Logger
}

// NewFetchCoordinator constructs a FetchCoordinator. A nil overlay runs fetches in the unmodified environment.
func NewFetchCoordinator(executor GitExecutor, commands CommandTable, overlay EnvironmentOverlay, logger *zap.Logger) (*FetchCoordinator, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchCoordinator{executor: executor, commands: commands, overlay: overlay, logger: logger}, nil
}

// FetchAll fetches all remotes with pruning and tags while the askpass overlay is active.
func (coordinator *FetchCoordinator) FetchAll(executionContext context.Context, repositoryPath string) FetchReport {
	restore, overlayError := applyOverlay(coordinator.overlay)
	if overlayError != nil {
		coordinator.logger.Warn(fetchOverlayFailureMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath), zap.Error(overlayError))
		return FetchReport{ErrorReport: fmt.Sprintf(fetchExecutionFailureReportTemplate, overlayError)}
	}
	defer restore()

	result, executionError := execshell.ToleratingExitCode(coordinator.executor.ExecuteGit(executionContext,
		scopedCommand(repositoryPath, coordinator.commands.Arguments(OperationFetchAll, TemplateParameters{}), execshell.RedirectErrorToOutput)))
	if executionError != nil {
		coordinator.logger.Warn(fetchExecutionFailureMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath), zap.Error(executionError))
		return FetchReport{ErrorReport: fmt.Sprintf(fetchExecutionFailureReportTemplate, executionError)}
	}

	report := ParseFetchOutput(result.StandardOutput)
	coordinator.logger.Debug(fetchCompletedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.Bool(logFieldFetchSuccessConstant, report.Success),
		zap.Int(logFieldFetchFailureCountConstant, len(report.Failures)),
	)
	return report
}

func applyOverlay(overlay EnvironmentOverlay) (func(), error) {
	if overlay == nil {
		return func() {}, nil
	}
	restore, applyError := overlay.Apply()
	if applyError != nil {
		return nil, applyError
	}
	if restore == nil {
		restore = func() {}
	}
	return restore, nil
}
