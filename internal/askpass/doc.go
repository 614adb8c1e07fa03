// Package askpass lets gitupdater act as git's askpass program.
//
// Before fetching or pushing, the scan applies an Overlay that points
// GIT_ASKPASS and SSH_ASKPASS at the running executable and marks the
// environment so the re-invoked binary recognises helper mode. The helper
// answers from the shared credential segment and prompts on the terminal only
// when no secret has been recorded for the request yet.
package askpass
