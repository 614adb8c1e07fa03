package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitupdater/internal/utils"
)

func TestCommandContextAccessorConfigurationFilePath(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, available := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, available)

	emptyContext := accessor.WithConfigurationFilePath(context.Background(), "  ")
	_, available = accessor.ConfigurationFilePath(emptyContext)
	require.False(testInstance, available)

	populatedContext := accessor.WithConfigurationFilePath(nil, " /etc/gitupdater/config.yaml ")
	configurationFilePath, available := accessor.ConfigurationFilePath(populatedContext)
	require.True(testInstance, available)
	require.Equal(testInstance, "/etc/gitupdater/config.yaml", configurationFilePath)
}
