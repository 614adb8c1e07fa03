package askpass

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	credentialManagerNotConfiguredMessageConstant = "credential manager not configured"
	secretPrompterNotConfiguredMessageConstant    = "secret prompter not configured"
	missingRequestMessageConstant                 = "askpass request missing"
	promptFailedErrorTemplateConstant             = "failed to read secret for %q: %w"
	writeSecretErrorTemplateConstant              = "failed to write secret: %w"
	recordSecretFailedMessageConstant             = "unable to record secret; it will be requested again"
	logFieldRequestConstant                       = "request"
	secretLineTemplateConstant                    = "%s\n"
)

var (
	// ErrCredentialManagerNotConfigured indicates a helper without a credential manager.
	ErrCredentialManagerNotConfigured = errors.New(credentialManagerNotConfiguredMessageConstant)
	// ErrSecretPrompterNotConfigured indicates a helper without a prompter.
	ErrSecretPrompterNotConfigured = errors.New(secretPrompterNotConfiguredMessageConstant)
	// ErrMissingRequest indicates helper mode was entered without a request to answer.
	ErrMissingRequest = errors.New(missingRequestMessageConstant)
)

// CredentialManager resolves and records secrets.
type CredentialManager interface {
	GetCredentials(requestKey string) (string, bool)
	AddCredentials(requestKey string, secret string) error
}

// SecretPrompter asks the user for a secret without echoing it.
type SecretPrompter interface {
	PromptSecret(prompt string) (string, error)
}

// IsHelperInvocation reports whether the process was started to answer an askpass request,
// either through the explicit flag or through the marker variable set by Overlay.
func IsHelperInvocation(arguments []string, lookupEnvironment func(string) (string, bool)) bool {
	if len(arguments) > 0 && arguments[0] == RequestFlag {
		return true
	}
	if lookupEnvironment == nil {
		return false
	}
	markerValue, present := lookupEnvironment(HelperMarkerVariableName)
	return present && markerValue == RequestFlag
}

// RequestKey extracts the request from helper arguments. Git passes the prompt text as the
// only argument; an explicit invocation passes it after RequestFlag.
func RequestKey(arguments []string) (string, error) {
	remaining := arguments
	if len(remaining) > 0 && remaining[0] == RequestFlag {
		remaining = remaining[1:]
	}
	requestKey := strings.Join(remaining, " ")
	if len(strings.TrimSpace(requestKey)) == 0 {
		return "", ErrMissingRequest
	}
	return requestKey, nil
}

// Helper answers a single askpass request.
type Helper struct {
	manager  CredentialManager
	prompter SecretPrompter
	output   io.Writer
	logger   *zap.Logger
}

// NewHelper validates dependencies and constructs a Helper writing answers to output.
func NewHelper(manager CredentialManager, prompter SecretPrompter, output io.Writer, logger *zap.Logger) (*Helper, error) {
	if manager == nil {
		return nil, ErrCredentialManagerNotConfigured
	}
	if prompter == nil {
		return nil, ErrSecretPrompterNotConfigured
	}
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helper{manager: manager, prompter: prompter, output: output, logger: logger}, nil
}

// Respond prints the secret recorded for requestKey. On a miss the user is prompted, the answer is
// recorded for later helpers of the same run, and then printed for the calling git process.
func (helper *Helper) Respond(requestKey string) error {
	if len(strings.TrimSpace(requestKey)) == 0 {
		return ErrMissingRequest
	}

	secret, found := helper.manager.GetCredentials(requestKey)
	if !found {
		promptedSecret, promptError := helper.prompter.PromptSecret(requestKey)
		if promptError != nil {
			return fmt.Errorf(promptFailedErrorTemplateConstant, requestKey, promptError)
		}
		secret = promptedSecret
		if addError := helper.manager.AddCredentials(requestKey, secret); addError != nil {
			helper.logger.Warn(recordSecretFailedMessageConstant, zap.String(logFieldRequestConstant, requestKey), zap.Error(addError))
		}
	}

	if _, writeError := fmt.Fprintf(helper.output, secretLineTemplateConstant, secret); writeError != nil {
		return fmt.Errorf(writeSecretErrorTemplateConstant, writeError)
	}
	return nil
}
