package repository_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/gitupdater/internal/execshell"
)

type stubGitExecutor struct {
	outputs          map[string]execshell.ExecutionResult
	directoryOutputs map[string]map[string]execshell.ExecutionResult
	failures         map[string]error
	recordedCommands []execshell.CommandDetails
	observeRun       func(key string)
}

func newStubGitExecutor(outputs map[string]execshell.ExecutionResult) *stubGitExecutor {
	return &stubGitExecutor{outputs: outputs, failures: map[string]error{}}
}

func (executor *stubGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	key := strings.Join(details.Arguments, " ")
	if executor.observeRun != nil {
		executor.observeRun(key)
	}
	if failure, failed := executor.failures[key]; failed {
		return execshell.ExecutionResult{}, execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details}, Cause: failure}
	}
	result, found := executor.directoryOutputs[details.WorkingDirectory][key]
	if !found {
		result, found = executor.outputs[key]
	}
	if !found {
		return execshell.ExecutionResult{}, fmt.Errorf("unexpected git command: %s", key)
	}
	if result.ExitCode != 0 {
		return result, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details}, Result: result}
	}
	return result, nil
}

func (executor *stubGitExecutor) recordedKeys() []string {
	keys := make([]string, 0, len(executor.recordedCommands))
	for _, details := range executor.recordedCommands {
		keys = append(keys, strings.Join(details.Arguments, " "))
	}
	return keys
}

type recordingOverlay struct {
	applyError error
	applied    int
	restored   int
}

func (overlay *recordingOverlay) Apply() (func(), error) {
	if overlay.applyError != nil {
		return nil, overlay.applyError
	}
	overlay.applied++
	return func() { overlay.restored++ }, nil
}

func output(text string) execshell.ExecutionResult {
	return execshell.ExecutionResult{StandardOutput: text}
}

func exitCode(code int) execshell.ExecutionResult {
	return execshell.ExecutionResult{ExitCode: code}
}
