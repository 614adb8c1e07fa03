package execshell

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	logFieldCommandConstant                   = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldRedirectConstant                  = "redirect"
)

// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandRunner runs a fully described command and reports its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutorOption customizes a ShellExecutor.
type ShellExecutorOption func(executor *ShellExecutor)

// WithCommandEventObserver adds an observer notified about every command lifecycle event.
// Repeated options register several observers.
func WithCommandEventObserver(observer CommandEventObserver) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observers = append(executor.observers, observer)
		}
	}
}

// WithGitExecutable overrides the executable used by ExecuteGit.
func WithGitExecutable(executableName string) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if len(executableName) > 0 {
			executor.gitExecutable = CommandName(executableName)
		}
	}
}

// WithDefaultTimeout bounds every command that does not carry its own timeout.
func WithDefaultTimeout(timeout time.Duration) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if timeout > 0 {
			executor.defaultTimeout = timeout
		}
	}
}

// ShellExecutor runs external commands with structured logging and timeouts.
type ShellExecutor struct {
	logger         *zap.Logger
	runner         CommandRunner
	observers      commandEventFanout
	formatter      CommandMessageFormatter
	gitExecutable  CommandName
	defaultTimeout time.Duration
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ShellExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:        logger,
		runner:        runner,
		formatter:     CommandMessageFormatter{},
		gitExecutable: CommandGit,
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// ExecuteGit runs the configured git executable with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: executor.gitExecutable, Details: details})
}

// Execute runs the command. A non-zero exit code yields CommandFailedError while still returning the captured result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	timeout := command.Details.Timeout
	if timeout <= 0 {
		timeout = executor.defaultTimeout
	}
	runContext := executionContext
	if timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(executionContext, timeout)
		defer cancel()
	}

	executor.logger.Debug(
		executor.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
		zap.Stringer(logFieldRedirectConstant, command.Details.Redirect),
	)
	executor.observers.CommandStarted(command)

	result, runError := executor.runner.Run(runContext, command)
	if timeout > 0 && errors.Is(runContext.Err(), context.DeadlineExceeded) && executionContext.Err() == nil {
		timeoutError := CommandTimeoutError{Command: command, Timeout: timeout}
		executor.logger.Warn(executor.formatter.BuildExecutionFailureMessage(command, timeoutError))
		executor.observers.CommandExecutionFailed(command, timeoutError)
		return ExecutionResult{}, timeoutError
	}
	if runError != nil {
		executor.logger.Warn(executor.formatter.BuildExecutionFailureMessage(command, runError))
		executor.observers.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observers.CommandCompleted(command, result)
	if result.ExitCode != 0 {
		executor.logger.Debug(
			executor.formatter.BuildFailureMessage(command, result),
			zap.Int(logFieldExitCodeConstant, result.ExitCode),
		)
		return result, CommandFailedError{Command: command, Result: result}
	}

	executor.logger.Debug(executor.formatter.BuildSuccessMessage(command))
	return result, nil
}

// ToleratingExitCode converts CommandFailedError into a plain result so callers can interpret exit codes themselves.
// Any other error is returned unchanged.
func ToleratingExitCode(result ExecutionResult, executionError error) (ExecutionResult, error) {
	if executionError == nil {
		return result, nil
	}
	var failedError CommandFailedError
	if errors.As(executionError, &failedError) {
		return failedError.Result, nil
	}
	return result, executionError
}
