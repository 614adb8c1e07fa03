package execshell

import (
	"fmt"
	"strings"
	"time"
)

const (
	commandGitStringConstant                = "git"
	commandFailedErrorTemplateConstant      = "%s exited with code %d"
	commandExecutionErrorTemplateConstant   = "%s could not be executed: %v"
	commandTimeoutErrorTemplateConstant     = "%s exceeded timeout of %s"
	commandNameArgumentsTemplateConstant    = "%s %s"
	commandArgumentsSeparatorConstant       = " "
	redirectModeNoneStringConstant          = "none"
	redirectModeErrorToOutputStringConstant = "error_to_output"
	redirectModeOutputToNullStringConstant  = "output_to_null"
	redirectModeErrorToNullStringConstant   = "error_to_null"
	redirectModeAllToNullStringConstant     = "all_to_null"
)

// CommandName identifies an executable understood by the executor.
type CommandName string

// CommandGit is the default git executable name.
const CommandGit CommandName = CommandName(commandGitStringConstant)

// RedirectMode controls how the standard streams of a command are captured.
type RedirectMode int

// Supported redirect modes.
const (
	// RedirectNone captures standard output and standard error separately.
	RedirectNone RedirectMode = iota
	// RedirectErrorToOutput merges standard error into standard output.
	RedirectErrorToOutput
	// RedirectOutputToNull discards standard output.
	RedirectOutputToNull
	// RedirectErrorToNull discards standard error.
	RedirectErrorToNull
	// RedirectAllToNull discards both streams; only the exit code is observable.
	RedirectAllToNull
)

// String returns the configuration spelling of the redirect mode.
func (mode RedirectMode) String() string {
	switch mode {
	case RedirectErrorToOutput:
		return redirectModeErrorToOutputStringConstant
	case RedirectOutputToNull:
		return redirectModeOutputToNullStringConstant
	case RedirectErrorToNull:
		return redirectModeErrorToNullStringConstant
	case RedirectAllToNull:
		return redirectModeAllToNullStringConstant
	default:
		return redirectModeNoneStringConstant
	}
}

// CommandDetails describes a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	Redirect             RedirectMode
	// Timeout bounds the invocation; zero means the executor default applies.
	Timeout time.Duration
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failing command and exit code.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, describeCommand(failure.Command), failure.Result.ExitCode)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// CommandTimeoutError reports a command terminated because its timeout elapsed.
type CommandTimeoutError struct {
	Command ShellCommand
	Timeout time.Duration
}

// Error describes the timeout.
func (failure CommandTimeoutError) Error() string {
	return fmt.Sprintf(commandTimeoutErrorTemplateConstant, describeCommand(failure.Command), failure.Timeout)
}

func describeCommand(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	joinedArguments := strings.Join(command.Details.Arguments, commandArgumentsSeparatorConstant)
	return fmt.Sprintf(commandNameArgumentsTemplateConstant, command.Name, joinedArguments)
}
