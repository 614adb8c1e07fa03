package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/execshell"
	"github.com/temirov/gitupdater/internal/repository"
)

const testFetchAllKeyConstant = "fetch --all --prune --tags --verbose"

func TestParseFetchOutput(testInstance *testing.T) {
	testCases := []struct {
		name           string
		output         string
		expectedReport repository.FetchReport
	}{
		{
			name:           "empty_output",
			output:         "  \n",
			expectedReport: repository.FetchReport{Success: false, ErrorReport: "No remotes to fetch"},
		},
		{
			name:           "all_remotes_fetched",
			output:         "Fetching origin\nFetching upstream\n",
			expectedReport: repository.FetchReport{Success: true},
		},
		{
			name:           "single_remote_up_to_date",
			output:         "From /srv/git/project\n = [up to date]      main       -> origin/main\n",
			expectedReport: repository.FetchReport{Success: true},
		},
		{
			name:   "failure_attributed_to_preceding_remote",
			output: "Fetching origin\nfatal: could not read\nFetching upstream\n",
			expectedReport: repository.FetchReport{
				Success:     false,
				ErrorReport: "  Failed to fetch from origin\n",
				Failures:    []repository.FetchFailure{{Remote: "origin", Line: "fatal: could not read"}},
			},
		},
		{
			name:   "failure_without_preceding_remote",
			output: "fatal: not a git repository\r\nFetching origin\n",
			expectedReport: repository.FetchReport{
				Success:     false,
				ErrorReport: "  Failed to fetch from \n",
				Failures:    []repository.FetchFailure{{Remote: "", Line: "fatal: not a git repository"}},
			},
		},
		{
			name:   "multiple_failures",
			output: "Fetching origin\nfatal: could not read Username\nFetching mirror\nfatal: repository not found\nerror: could not fetch mirror\n",
			expectedReport: repository.FetchReport{
				Success:     false,
				ErrorReport: "  Failed to fetch from origin\n  Failed to fetch from mirror\n",
				Failures: []repository.FetchFailure{
					{Remote: "origin", Line: "fatal: could not read Username"},
					{Remote: "mirror", Line: "fatal: repository not found"},
				},
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedReport, repository.ParseFetchOutput(testCase.output))
		})
	}
}

func TestFetchCoordinatorRunsFetchInsideOverlay(testInstance *testing.T) {
	overlay := &recordingOverlay{}
	executor := newStubGitExecutor(map[string]execshell.ExecutionResult{
		testFetchAllKeyConstant: {StandardOutput: "Fetching origin\nfatal: Authentication failed\n", ExitCode: 1},
	})
	executor.observeRun = func(string) {
		require.Equal(testInstance, 1, overlay.applied)
		require.Equal(testInstance, 0, overlay.restored)
	}

	coordinator, creationError := repository.NewFetchCoordinator(executor, newTestCommandTable(testInstance), overlay, zap.NewNop())
	require.NoError(testInstance, creationError)

	report := coordinator.FetchAll(context.Background(), testRepositoryPathConstant)

	require.False(testInstance, report.Success)
	require.Equal(testInstance, "  Failed to fetch from origin\n", report.ErrorReport)
	require.Equal(testInstance, 1, overlay.restored)
	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, execshell.RedirectErrorToOutput, executor.recordedCommands[0].Redirect)
	require.Equal(testInstance, testRepositoryPathConstant, executor.recordedCommands[0].WorkingDirectory)
	require.Equal(testInstance, map[string]string{"GIT_CEILING_DIRECTORIES": "/work"}, executor.recordedCommands[0].EnvironmentVariables)
}

func TestFetchCoordinatorReportsOverlayFailure(testInstance *testing.T) {
	overlay := &recordingOverlay{applyError: errors.New("executable path unavailable")}
	executor := newStubGitExecutor(nil)

	coordinator, creationError := repository.NewFetchCoordinator(executor, newTestCommandTable(testInstance), overlay, nil)
	require.NoError(testInstance, creationError)

	report := coordinator.FetchAll(context.Background(), testRepositoryPathConstant)
	require.False(testInstance, report.Success)
	require.Contains(testInstance, report.ErrorReport, "executable path unavailable")
	require.Empty(testInstance, executor.recordedCommands)
}

func TestFetchCoordinatorReportsExecutionFailure(testInstance *testing.T) {
	overlay := &recordingOverlay{}
	executor := newStubGitExecutor(nil)
	executor.failures[testFetchAllKeyConstant] = errors.New("signal: killed")

	coordinator, creationError := repository.NewFetchCoordinator(executor, newTestCommandTable(testInstance), overlay, nil)
	require.NoError(testInstance, creationError)

	report := coordinator.FetchAll(context.Background(), testRepositoryPathConstant)
	require.False(testInstance, report.Success)
	require.Contains(testInstance, report.ErrorReport, "signal: killed")
	require.Equal(testInstance, 1, overlay.restored)
}

func TestFetchCoordinatorWithoutOverlay(testInstance *testing.T) {
	executor := newStubGitExecutor(map[string]execshell.ExecutionResult{
		testFetchAllKeyConstant: output("Fetching origin\n"),
	})
	coordinator, creationError := repository.NewFetchCoordinator(executor, newTestCommandTable(testInstance), nil, nil)
	require.NoError(testInstance, creationError)

	require.Equal(testInstance, repository.FetchReport{Success: true}, coordinator.FetchAll(context.Background(), testRepositoryPathConstant))
}
