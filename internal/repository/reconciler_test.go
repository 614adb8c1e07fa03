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

func TestClassifyAncestry(testInstance *testing.T) {
	testCases := []struct {
		name           string
		localHead      string
		ancestry       []string
		expectedStatus repository.RepositoryStatus
	}{
		{name: "single_entry_match", localHead: "abc123", ancestry: []string{"abc123"}, expectedStatus: repository.UpToDate},
		{name: "first_entry_match", localHead: "abc123", ancestry: []string{"abc123", "def456", "000000"}, expectedStatus: repository.UpToDate},
		{name: "later_entry_match", localHead: "abc123", ancestry: []string{"def456", "abc123", "000000"}, expectedStatus: repository.RemoteAhead},
		{name: "absent", localHead: "zzz999", ancestry: []string{"def456", "abc123", "000000"}, expectedStatus: repository.LocalAhead},
		{name: "empty_ancestry", localHead: "abc123", ancestry: nil, expectedStatus: repository.LocalAhead},
		{name: "ambiguous_argument", localHead: "abc123", ancestry: []string{"fatal: ambiguous argument"}, expectedStatus: repository.RemoteMissingBranch},
		{
			name:           "ambiguous_argument_with_detail",
			localHead:      "fatal: ambiguous argument 'origin/gone': unknown revision",
			ancestry:       []string{"fatal: ambiguous argument 'origin/gone': unknown revision", "Use '--' to separate paths from revisions"},
			expectedStatus: repository.RemoteMissingBranch,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedStatus, repository.ClassifyAncestry(testCase.localHead, testCase.ancestry))
		})
	}
}

func TestRepositoryStatusString(testInstance *testing.T) {
	require.Equal(testInstance, "up to date", repository.UpToDate.String())
	require.Equal(testInstance, "remote ahead", repository.RemoteAhead.String())
	require.Equal(testInstance, "local missing branch", repository.LocalMissingBranch.String())
	require.Equal(testInstance, "unknown", repository.RepositoryStatus(42).String())
}

func TestHeadReconcilerCompareHeads(testInstance *testing.T) {
	info := repository.RepositoryInfo{
		Name:         testRepositoryNameConstant,
		Path:         testRepositoryPathConstant,
		IsRepository: true,
		Branches:     []repository.BranchInfo{{Name: "master", Hash: "abc123"}},
	}

	testCases := []struct {
		name             string
		branch           string
		outputs          map[string]execshell.ExecutionResult
		expectedStatus   repository.RepositoryStatus
		expectedCommands int
	}{
		{
			name:             "local_branch_missing",
			branch:           "feature",
			expectedStatus:   repository.LocalMissingBranch,
			expectedCommands: 0,
		},
		{
			name:   "remote_ahead",
			branch: "master",
			outputs: map[string]execshell.ExecutionResult{
				"rev-list origin/master": output("def456\nabc123\n000000\n"),
			},
			expectedStatus:   repository.RemoteAhead,
			expectedCommands: 1,
		},
		{
			name:   "remote_branch_missing",
			branch: "master",
			outputs: map[string]execshell.ExecutionResult{
				"rev-list origin/master": {StandardOutput: "fatal: ambiguous argument 'origin/master': unknown revision or path not in the working tree.\n", ExitCode: 128},
			},
			expectedStatus:   repository.RemoteMissingBranch,
			expectedCommands: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			executor := newStubGitExecutor(testCase.outputs)
			reconciler, creationError := repository.NewHeadReconciler(executor, newTestCommandTable(testInstance), zap.NewNop())
			require.NoError(testInstance, creationError)

			status, compareError := reconciler.CompareHeads(context.Background(), info, "origin", testCase.branch)
			require.NoError(testInstance, compareError)
			require.Equal(testInstance, testCase.expectedStatus, status)
			require.Len(testInstance, executor.recordedCommands, testCase.expectedCommands)
			for _, recordedCommand := range executor.recordedCommands {
				require.Equal(testInstance, execshell.RedirectErrorToOutput, recordedCommand.Redirect)
				require.Equal(testInstance, testRepositoryPathConstant, recordedCommand.WorkingDirectory)
			}
		})
	}
}

func TestHeadReconcilerReportsExecutionFailure(testInstance *testing.T) {
	executor := newStubGitExecutor(nil)
	executor.failures["rev-list origin/master"] = context.DeadlineExceeded

	reconciler, creationError := repository.NewHeadReconciler(executor, newTestCommandTable(testInstance), nil)
	require.NoError(testInstance, creationError)

	info := repository.RepositoryInfo{Path: testRepositoryPathConstant, IsRepository: true, Branches: []repository.BranchInfo{{Name: "master", Hash: "abc123"}}}
	_, compareError := reconciler.CompareHeads(context.Background(), info, "origin", "master")
	require.Error(testInstance, compareError)
	require.True(testInstance, errors.Is(compareError, context.DeadlineExceeded))
}
