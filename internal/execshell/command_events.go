package execshell

// CommandEventObserver receives lifecycle notifications for every git invocation.
// CommandExecutionFailed covers commands that never produced a result: the process
// could not start, the context was cancelled, or the timeout elapsed.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	CommandExecutionFailed(command ShellCommand, failure error)
}

// commandEventFanout forwards each event to the observers in registration order.
// The zero value discards events.
type commandEventFanout []CommandEventObserver

func (fanout commandEventFanout) CommandStarted(command ShellCommand) {
	for _, observer := range fanout {
		observer.CommandStarted(command)
	}
}

func (fanout commandEventFanout) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range fanout {
		observer.CommandCompleted(command, result)
	}
}

func (fanout commandEventFanout) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range fanout {
		observer.CommandExecutionFailed(command, failure)
	}
}
