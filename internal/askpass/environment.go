package askpass

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// GitAskpassVariableName is the variable git consults for its askpass program.
	GitAskpassVariableName = "GIT_ASKPASS"
	// SSHAskpassVariableName is the variable ssh consults for its askpass program.
	SSHAskpassVariableName = "SSH_ASKPASS"
	// HelperMarkerVariableName marks a process started by git as an askpass helper.
	HelperMarkerVariableName = "GITUPDATER_ASKPASS"
	// ConfigurationFileVariableName forwards the parent's configuration file to helpers.
	ConfigurationFileVariableName = "GITUPDATER_CONFIG_FILE"
	// RequestFlag selects helper mode on the command line.
	RequestFlag = "--pwRequest"

	executablePathNotConfiguredMessageConstant = "askpass executable path not configured"
	environmentUpdateErrorTemplateConstant     = "failed to update %s: %w"
)

// ErrExecutablePathNotConfigured indicates an overlay without an executable to advertise.
var ErrExecutablePathNotConfigured = errors.New(executablePathNotConfiguredMessageConstant)

// Environment abstracts the process environment.
type Environment interface {
	LookupEnv(name string) (string, bool)
	Setenv(name string, value string) error
	Unsetenv(name string) error
}

// ProcessEnvironment reads and writes the real process environment.
type ProcessEnvironment struct{}

// LookupEnv delegates to os.LookupEnv.
func (ProcessEnvironment) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Setenv delegates to os.Setenv.
func (ProcessEnvironment) Setenv(name string, value string) error {
	return os.Setenv(name, value)
}

// Unsetenv delegates to os.Unsetenv.
func (ProcessEnvironment) Unsetenv(name string) error {
	return os.Unsetenv(name)
}

// OverlayOption customizes an Overlay.
type OverlayOption func(overlay *Overlay)

// WithEnvironment replaces the process environment, mainly for tests.
func WithEnvironment(environment Environment) OverlayOption {
	return func(overlay *Overlay) {
		if environment != nil {
			overlay.environment = environment
		}
	}
}

// WithForwardedVariable adds a variable the helper needs to locate state owned by the parent run.
func WithForwardedVariable(name string, value string) OverlayOption {
	return func(overlay *Overlay) {
		trimmedName := strings.TrimSpace(name)
		if len(trimmedName) > 0 {
			overlay.forwardedVariables = append(overlay.forwardedVariables, [2]string{trimmedName, value})
		}
	}
}

// Overlay installs the askpass variables for the duration of a git invocation.
type Overlay struct {
	environment           Environment
	executablePath        string
	configurationFilePath string
	forwardedVariables    [][2]string
}

type savedVariable struct {
	name    string
	value   string
	present bool
}

// NewOverlay constructs an Overlay advertising executablePath as the askpass program.
func NewOverlay(executablePath string, configurationFilePath string, options ...OverlayOption) (*Overlay, error) {
	trimmedExecutablePath := strings.TrimSpace(executablePath)
	if len(trimmedExecutablePath) == 0 {
		return nil, ErrExecutablePathNotConfigured
	}

	overlay := &Overlay{
		environment:           ProcessEnvironment{},
		executablePath:        trimmedExecutablePath,
		configurationFilePath: strings.TrimSpace(configurationFilePath),
	}
	for _, option := range options {
		if option != nil {
			option(overlay)
		}
	}
	return overlay, nil
}

// Apply sets the askpass variables and returns a function restoring the previous values.
// Variables that were absent before Apply are unset again on restore.
func (overlay *Overlay) Apply() (func(), error) {
	assignments := [][2]string{
		{GitAskpassVariableName, overlay.executablePath},
		{SSHAskpassVariableName, overlay.executablePath},
		{HelperMarkerVariableName, RequestFlag},
		{ConfigurationFileVariableName, overlay.configurationFilePath},
	}
	assignments = append(assignments, overlay.forwardedVariables...)

	savedVariables := make([]savedVariable, 0, len(assignments))
	restore := func() {
		for index := len(savedVariables) - 1; index >= 0; index-- {
			saved := savedVariables[index]
			if saved.present {
				_ = overlay.environment.Setenv(saved.name, saved.value)
			} else {
				_ = overlay.environment.Unsetenv(saved.name)
			}
		}
	}

	for _, assignment := range assignments {
		previousValue, present := overlay.environment.LookupEnv(assignment[0])
		savedVariables = append(savedVariables, savedVariable{name: assignment[0], value: previousValue, present: present})
		if setError := overlay.environment.Setenv(assignment[0], assignment[1]); setError != nil {
			restore()
			return nil, fmt.Errorf(environmentUpdateErrorTemplateConstant, assignment[0], setError)
		}
	}
	return restore, nil
}
