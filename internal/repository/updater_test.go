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

func TestClassifyUpdateExitCode(testInstance *testing.T) {
	require.Equal(testInstance, repository.Updated, repository.ClassifyUpdateExitCode(0))
	require.Equal(testInstance, repository.FastForwardNotPossible, repository.ClassifyUpdateExitCode(1))
	require.Equal(testInstance, repository.UpdateFailed, repository.ClassifyUpdateExitCode(128))
	require.Equal(testInstance, "fast-forward not possible", repository.FastForwardNotPossible.String())
}

func TestClassifyCurrentBranchUpdate(testInstance *testing.T) {
	require.Equal(testInstance, repository.Updated, repository.ClassifyCurrentBranchUpdate(0, "Updating aaa111..bbb222\nFast-forward\n"))
	require.Equal(testInstance, repository.FastForwardNotPossible, repository.ClassifyCurrentBranchUpdate(128, "fatal: Not possible to fast-forward, aborting.\n"))
	require.Equal(testInstance, repository.UpdateFailed, repository.ClassifyCurrentBranchUpdate(1, "error: Your local changes to the following files would be overwritten by merge:\n"))
}

func TestBranchUpdaterUpdates(testInstance *testing.T) {
	const (
		currentBranchKey = "rev-parse --abbrev-ref HEAD"
		localUpdateKey   = "push . refs/remotes/origin/main:refs/heads/main"
		currentUpdateKey = "merge --ff-only refs/remotes/origin/main"
		remoteUpdateKey  = "push origin main"
	)

	testCases := []struct {
		name             string
		updateRemote     bool
		outputs          map[string]execshell.ExecutionResult
		expectedOutcome  repository.UpdateOutcome
		expectedKeys     []string
		expectedApplied  int
		expectedRestored int
	}{
		{
			name:            "local_fast_forward",
			outputs:         map[string]execshell.ExecutionResult{currentBranchKey: output("feature\n"), localUpdateKey: exitCode(0)},
			expectedOutcome: repository.Updated,
			expectedKeys:    []string{currentBranchKey, localUpdateKey},
		},
		{
			name:            "local_not_fast_forward",
			outputs:         map[string]execshell.ExecutionResult{currentBranchKey: output("feature\n"), localUpdateKey: exitCode(1)},
			expectedOutcome: repository.FastForwardNotPossible,
			expectedKeys:    []string{currentBranchKey, localUpdateKey},
		},
		{
			name:            "detached_head",
			outputs:         map[string]execshell.ExecutionResult{currentBranchKey: output("HEAD\n"), localUpdateKey: exitCode(0)},
			expectedOutcome: repository.Updated,
			expectedKeys:    []string{currentBranchKey, localUpdateKey},
		},
		{
			name:            "unborn_head",
			outputs:         map[string]execshell.ExecutionResult{currentBranchKey: exitCode(128), localUpdateKey: exitCode(0)},
			expectedOutcome: repository.Updated,
			expectedKeys:    []string{currentBranchKey, localUpdateKey},
		},
		{
			name:            "checked_out_fast_forward",
			outputs:         map[string]execshell.ExecutionResult{currentBranchKey: output("main\n"), currentUpdateKey: output("Updating aaa111..bbb222\nFast-forward\n")},
			expectedOutcome: repository.Updated,
			expectedKeys:    []string{currentBranchKey, currentUpdateKey},
		},
		{
			name: "checked_out_not_fast_forward",
			outputs: map[string]execshell.ExecutionResult{
				currentBranchKey: output("main\n"),
				currentUpdateKey: {StandardOutput: "hint: Diverging branches can't be fast-forwarded\nfatal: Not possible to fast-forward, aborting.\n", ExitCode: 128},
			},
			expectedOutcome: repository.FastForwardNotPossible,
			expectedKeys:    []string{currentBranchKey, currentUpdateKey},
		},
		{
			name: "checked_out_blocked_by_local_changes",
			outputs: map[string]execshell.ExecutionResult{
				currentBranchKey: output("main\n"),
				currentUpdateKey: {StandardOutput: "error: Your local changes to the following files would be overwritten by merge:\n\tfirst.txt\nAborting\n", ExitCode: 1},
			},
			expectedOutcome: repository.UpdateFailed,
			expectedKeys:    []string{currentBranchKey, currentUpdateKey},
		},
		{
			name:             "remote_push",
			updateRemote:     true,
			outputs:          map[string]execshell.ExecutionResult{remoteUpdateKey: exitCode(0)},
			expectedOutcome:  repository.Updated,
			expectedKeys:     []string{remoteUpdateKey},
			expectedApplied:  1,
			expectedRestored: 1,
		},
		{
			name:             "remote_rejected",
			updateRemote:     true,
			outputs:          map[string]execshell.ExecutionResult{remoteUpdateKey: exitCode(128)},
			expectedOutcome:  repository.UpdateFailed,
			expectedKeys:     []string{remoteUpdateKey},
			expectedApplied:  1,
			expectedRestored: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			overlay := &recordingOverlay{}
			executor := newStubGitExecutor(testCase.outputs)
			updater, creationError := repository.NewBranchUpdater(executor, newTestCommandTable(testInstance), overlay, zap.NewNop())
			require.NoError(testInstance, creationError)

			var outcome repository.UpdateOutcome
			var updateError error
			if testCase.updateRemote {
				outcome, updateError = updater.UpdateRemote(context.Background(), testRepositoryPathConstant, "origin", "main")
			} else {
				outcome, updateError = updater.UpdateLocal(context.Background(), testRepositoryPathConstant, "origin", "main")
			}

			require.NoError(testInstance, updateError)
			require.Equal(testInstance, testCase.expectedOutcome, outcome)
			require.Equal(testInstance, testCase.expectedKeys, executor.recordedKeys())
			require.Equal(testInstance, testCase.expectedApplied, overlay.applied)
			require.Equal(testInstance, testCase.expectedRestored, overlay.restored)
			for _, details := range executor.recordedCommands {
				require.Equal(testInstance, testRepositoryPathConstant, details.WorkingDirectory)
				require.Equal(testInstance, map[string]string{"GIT_CEILING_DIRECTORIES": "/work"}, details.EnvironmentVariables)
			}
		})
	}
}

func TestBranchUpdaterReportsFailures(testInstance *testing.T) {
	overlay := &recordingOverlay{applyError: errors.New("no executable")}
	updater, creationError := repository.NewBranchUpdater(newStubGitExecutor(nil), newTestCommandTable(testInstance), overlay, nil)
	require.NoError(testInstance, creationError)

	outcome, updateError := updater.UpdateRemote(context.Background(), testRepositoryPathConstant, "origin", "main")
	require.Error(testInstance, updateError)
	require.Equal(testInstance, repository.UpdateFailed, outcome)

	outcome, updateError = updater.UpdateLocal(context.Background(), testRepositoryPathConstant, "origin", "main")
	require.Error(testInstance, updateError)
	require.Equal(testInstance, repository.UpdateFailed, outcome)
}
