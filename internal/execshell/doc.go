// Package execshell runs external commands, git in particular, behind a
// testable executor.
//
// ShellExecutor adds structured logging, per-command timeouts and lifecycle
// events on top of a CommandRunner. OSCommandRunner is the os/exec backed
// runner and honours the stream redirect modes requested by callers.
// Non-zero exit codes are reported through CommandFailedError together with
// the captured result, so callers that interpret exit codes can recover it
// with ToleratingExitCode.
package execshell
