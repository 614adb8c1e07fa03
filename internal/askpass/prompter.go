package askpass

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	terminalDevicePathConstant         = "/dev/tty"
	terminalUnavailableMessageConstant = "no terminal available for secret prompt"
	readSecretErrorTemplateConstant    = "failed to read secret: %w"
	promptSuffixConstant               = " "
	lineTerminatorCharactersConstant   = "\r\n"
)

// ErrTerminalUnavailable indicates neither the controlling terminal nor standard input is a terminal.
var ErrTerminalUnavailable = errors.New(terminalUnavailableMessageConstant)

// TerminalPrompter reads secrets from the controlling terminal with echo disabled.
// Standard output belongs to git while the helper runs, so the prompt goes to the terminal
// itself or, failing that, to standard error.
type TerminalPrompter struct {
	terminalPath string
}

// NewTerminalPrompter constructs a prompter bound to the controlling terminal.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{terminalPath: terminalDevicePathConstant}
}

// PromptSecret displays prompt and reads one line without echo.
func (prompter *TerminalPrompter) PromptSecret(prompt string) (string, error) {
	terminalFile, openError := os.OpenFile(prompter.terminalPath, os.O_RDWR, 0)
	if openError == nil {
		defer terminalFile.Close()
		if term.IsTerminal(int(terminalFile.Fd())) {
			return readSecret(int(terminalFile.Fd()), terminalFile, prompt)
		}
	}

	standardInputDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(standardInputDescriptor) {
		return "", ErrTerminalUnavailable
	}
	return readSecret(standardInputDescriptor, os.Stderr, prompt)
}

func readSecret(descriptor int, promptOutput io.Writer, prompt string) (string, error) {
	displayedPrompt := strings.TrimRight(prompt, promptSuffixConstant)
	fmt.Fprint(promptOutput, displayedPrompt+promptSuffixConstant)
	secret, readError := term.ReadPassword(descriptor)
	fmt.Fprintln(promptOutput)
	if readError != nil {
		return "", fmt.Errorf(readSecretErrorTemplateConstant, readError)
	}
	return strings.TrimRight(string(secret), lineTerminatorCharactersConstant), nil
}
