package credentials

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	storeNotConfiguredMessageConstant     = "credential store not configured"
	credentialLookupFailedMessageConstant = "credential lookup failed"
	addCredentialsErrorTemplateConstant   = "failed to record credentials: %w"
	logFieldRequestKeyConstant            = "request"
)

// ErrStoreNotConfigured indicates a Manager constructed without a store.
var ErrStoreNotConfigured = errors.New(storeNotConfiguredMessageConstant)

// Manager answers credential requests from a Store.
type Manager struct {
	store  Store
	logger *zap.Logger
}

// NewManager constructs a Manager. A nil logger discards diagnostics.
func NewManager(store Store, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}, nil
}

// GetCredentials returns the secret recorded for requestKey. Misses, including unreadable stores,
// return an empty string and false, so a stored empty secret remains distinguishable from a miss.
func (manager *Manager) GetCredentials(requestKey string) (string, bool) {
	secret, found, getError := manager.store.Get(requestKey)
	if getError != nil {
		manager.logger.Warn(credentialLookupFailedMessageConstant, zap.String(logFieldRequestKeyConstant, requestKey), zap.Error(getError))
		return "", false
	}
	if !found {
		return "", false
	}
	return secret, true
}

// AddCredentials records secret for requestKey so every process attached to the store observes it.
func (manager *Manager) AddCredentials(requestKey string, secret string) error {
	if putError := manager.store.Put(requestKey, secret); putError != nil {
		return fmt.Errorf(addCredentialsErrorTemplateConstant, putError)
	}
	return nil
}
