package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitDiffSubcommandNameConstant     = "diff"
	gitCachedFlagConstant             = "--cached"
	gitShortstatFlagConstant          = "--shortstat"
	gitLSFilesSubcommandNameConstant  = "ls-files"
	gitRemoteSubcommandNameConstant   = "remote"
	gitBranchSubcommandNameConstant   = "branch"
	gitRemotesFlagConstant            = "-r"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitRevListSubcommandNameConstant  = "rev-list"
	gitFetchSubcommandNameConstant    = "fetch"
	gitAllFlagConstant                = "--all"
	gitPushSubcommandNameConstant     = "push"
	gitVersionSubcommandNameConstant  = "version"
	gitLocalRepositoryRemoteConstant  = "."
	gitFetchAllRemotesLabelConstant   = "all remotes"
)

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitIndexProbeTemplates = stageTemplates{
		start:            "Checking %s for uncommitted changes",
		success:          "%s has no uncommitted changes",
		failure:          "%s reported uncommitted changes or is not a repository (exit code %d%s)",
		executionFailure: "Unable to check %s for uncommitted changes: %s",
	}
	gitUnstagedChangesTemplates = stageTemplates{
		start:            "Checking %s for unstaged changes",
		success:          "Collected unstaged changes for %s",
		failure:          "Failed to check %s for unstaged changes (exit code %d%s)",
		executionFailure: "Unable to check %s for unstaged changes: %s",
	}
	gitUntrackedFilesTemplates = stageTemplates{
		start:            "Listing untracked files in %s",
		success:          "Listed untracked files in %s",
		failure:          "No untracked files listed in %s (exit code %d%s)",
		executionFailure: "Unable to list untracked files in %s: %s",
	}
	gitRemoteListTemplates = stageTemplates{
		start:            "Listing remotes in %s",
		success:          "Listed remotes in %s",
		failure:          "Failed to list remotes in %s (exit code %d%s)",
		executionFailure: "Unable to list remotes in %s: %s",
	}
	gitLocalBranchListTemplates = stageTemplates{
		start:            "Listing local branches in %s",
		success:          "Listed local branches in %s",
		failure:          "Failed to list local branches in %s (exit code %d%s)",
		executionFailure: "Unable to list local branches in %s: %s",
	}
	gitRemoteBranchListTemplates = stageTemplates{
		start:            "Listing remote-tracking branches in %s",
		success:          "Listed remote-tracking branches in %s",
		failure:          "Failed to list remote-tracking branches in %s (exit code %d%s)",
		executionFailure: "Unable to list remote-tracking branches in %s: %s",
	}
	gitVersionTemplates = stageTemplates{
		start:            "Checking git version from %s",
		success:          "Git is available from %s",
		failure:          "Git version check failed from %s (exit code %d%s)",
		executionFailure: "Git is not available from %s: %s",
	}
)

const (
	gitRevisionStartTemplateConstant                = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant              = "%s in %s resolved"
	gitRevisionFailureTemplateConstant              = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant     = "Unable to resolve %s in %s: %s"
	gitAncestryStartTemplateConstant                = "Listing ancestry of %s in %s"
	gitAncestrySuccessTemplateConstant              = "Listed ancestry of %s in %s"
	gitAncestryFailureTemplateConstant              = "Failed to list ancestry of %s in %s (exit code %d%s)"
	gitAncestryExecutionFailureTemplateConstant     = "Unable to list ancestry of %s in %s: %s"
	gitFetchStartTemplateConstant                   = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant                 = "Fetched from %s in %s"
	gitFetchFailureTemplateConstant                 = "Failed to fetch from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant        = "Unable to fetch from %s in %s: %s"
	gitPushStartTemplateConstant                    = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                  = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                  = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant         = "Unable to push %s to %s from %s: %s"
	gitPushLocalRepositoryLabelConstant             = "local repository"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(arguments[0]) {
	case gitDiffSubcommandNameConstant:
		if containsArgument(arguments, gitCachedFlagConstant) {
			return formatter.applyTemplates(gitIndexProbeTemplates, workingDirectory, result, failure, stage)
		}
		if containsArgument(arguments, gitShortstatFlagConstant) {
			return formatter.applyTemplates(gitUnstagedChangesTemplates, workingDirectory, result, failure, stage)
		}
	case gitLSFilesSubcommandNameConstant:
		return formatter.applyTemplates(gitUntrackedFilesTemplates, workingDirectory, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		if len(arguments) == 1 {
			return formatter.applyTemplates(gitRemoteListTemplates, workingDirectory, result, failure, stage)
		}
	case gitBranchSubcommandNameConstant:
		if containsArgument(arguments, gitRemotesFlagConstant) {
			return formatter.applyTemplates(gitRemoteBranchListTemplates, workingDirectory, result, failure, stage)
		}
		if len(arguments) == 1 {
			return formatter.applyTemplates(gitLocalBranchListTemplates, workingDirectory, result, failure, stage)
		}
	case gitVersionSubcommandNameConstant:
		return formatter.applyTemplates(gitVersionTemplates, workingDirectory, result, failure, stage)
	case gitRevParseSubcommandNameConstant:
		return formatter.describeReferenceMessage(gitRevisionStartTemplateConstant, gitRevisionSuccessTemplateConstant, gitRevisionFailureTemplateConstant, gitRevisionExecutionFailureTemplateConstant, command, result, failure, stage)
	case gitRevListSubcommandNameConstant:
		return formatter.describeReferenceMessage(gitAncestryStartTemplateConstant, gitAncestrySuccessTemplateConstant, gitAncestryFailureTemplateConstant, gitAncestryExecutionFailureTemplateConstant, command, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		return formatter.describeFetchMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describePushMessage(command, result, failure, stage)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) applyTemplates(templates stageTemplates, subject string, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeReferenceMessage(startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string, command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	reference := formatter.extractLastNonFlagArgument(command.Details.Arguments[1:])
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, reference, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, reference, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, reference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, reference, workingDirectory, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeFetchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments[1:]
	remoteName := gitFetchAllRemotesLabelConstant
	if !containsArgument(arguments, gitAllFlagConstant) {
		if firstRemote := formatter.extractFirstNonFlagArgument(arguments); len(firstRemote) > 0 {
			remoteName = firstRemote
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitFetchStartTemplateConstant, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitFetchSuccessTemplateConstant, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitFetchFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitFetchExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describePushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments[1:]
	remoteName := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments))
	if remoteName == gitLocalRepositoryRemoteConstant {
		remoteName = gitPushLocalRepositoryLabelConstant
	}
	reference := formatter.ensureValue(formatter.extractLastNonFlagArgument(arguments))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPushStartTemplateConstant, reference, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPushSuccessTemplateConstant, reference, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, reference, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, reference, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractLastNonFlagArgument(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		return trimmed
	}
	return fallbackUnknownValueLabelConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
