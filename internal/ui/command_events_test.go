package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitupdater/internal/execshell"
	"github.com/temirov/gitupdater/internal/ui"
)

const (
	testRepositoryDirectoryConstant       = "/tmp/project"
	testExecutionFailureReasonConstant    = "executable file not found"
	testStandardErrorMessageConstant      = "fatal: not a git repository"
	testStartMessageExpectationConstant   = "Fetching from all remotes in /tmp/project"
	testSuccessMessageExpectationConstant = "Fetched from all remotes in /tmp/project"
	testFailureMessageExpectationConstant = "Failed to fetch from all remotes in /tmp/project (exit code 128: fatal: not a git repository)"
	testExecutionFailureExpectation       = "Unable to fetch from all remotes in /tmp/project: executable file not found"
)

func TestConsoleCommandEventLoggerLevelsAndMessages(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

	command := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:        []string{"fetch", "--all", "--prune", "--tags"},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}

	eventLogger.CommandStarted(command)
	eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
	eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 128, StandardError: testStandardErrorMessageConstant})
	eventLogger.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))

	entries := observedLogs.All()
	require.Len(testInstance, entries, 4)

	require.Equal(testInstance, zapcore.InfoLevel, entries[0].Level)
	require.Equal(testInstance, testStartMessageExpectationConstant, entries[0].Message)

	require.Equal(testInstance, zapcore.InfoLevel, entries[1].Level)
	require.Equal(testInstance, testSuccessMessageExpectationConstant, entries[1].Message)

	require.Equal(testInstance, zapcore.InfoLevel, entries[2].Level)
	require.Equal(testInstance, testFailureMessageExpectationConstant, entries[2].Message)
	require.Equal(testInstance, int64(128), entries[2].ContextMap()["exit_code"])

	require.Equal(testInstance, zapcore.ErrorLevel, entries[3].Level)
	require.Equal(testInstance, testExecutionFailureExpectation, entries[3].Message)
}

func TestConsoleCommandEventLoggerToleratesNilReceiver(testInstance *testing.T) {
	var eventLogger *ui.ConsoleCommandEventLogger
	require.NotPanics(testInstance, func() {
		eventLogger.CommandStarted(execshell.ShellCommand{})
		eventLogger.CommandCompleted(execshell.ShellCommand{}, execshell.ExecutionResult{})
		eventLogger.CommandExecutionFailed(execshell.ShellCommand{}, nil)
	})
}
