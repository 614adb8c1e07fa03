package utils_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/utils"
)

const (
	testLogFileNameConstant         = "gitupdater.log"
	testFetchFailureMessageConstant = "fetch failed"
	testRepositoryFieldConstant     = "repository"
	testRepositoryNameConstant      = "alpha"
)

func createFileLogger(testInstance *testing.T, level utils.LogLevel, format utils.LogFormat) func() string {
	testInstance.Helper()
	logPath := filepath.Join(testInstance.TempDir(), testLogFileNameConstant)
	logger, creationError := utils.NewLoggerFactory(utils.WithOutputPath(logPath)).CreateLogger(level, format)
	require.NoError(testInstance, creationError)

	logger.Debug(testFetchFailureMessageConstant+" debug")
	logger.Warn(testFetchFailureMessageConstant, zap.String(testRepositoryFieldConstant, testRepositoryNameConstant))
	_ = logger.Sync()

	return func() string {
		content, readError := os.ReadFile(logPath)
		require.NoError(testInstance, readError)
		return strings.TrimSpace(string(content))
	}
}

func TestLoggerFactoryStructuredOutput(testInstance *testing.T) {
	readLog := createFileLogger(testInstance, utils.LogLevelWarn, utils.LogFormatStructured)

	logLines := strings.Split(readLog(), "\n")
	require.Len(testInstance, logLines, 1)

	var entry map[string]any
	require.NoError(testInstance, json.Unmarshal([]byte(logLines[0]), &entry))
	require.Equal(testInstance, "warn", entry["level"])
	require.Equal(testInstance, testFetchFailureMessageConstant, entry["message"])
	require.Equal(testInstance, testRepositoryNameConstant, entry[testRepositoryFieldConstant])
	require.Contains(testInstance, entry, "timestamp")
	require.NotContains(testInstance, entry, "caller")
}

func TestLoggerFactoryConsoleOutput(testInstance *testing.T) {
	readLog := createFileLogger(testInstance, utils.LogLevel(" DEBUG "), utils.LogFormat("Console"))

	logLines := strings.Split(readLog(), "\n")
	require.Len(testInstance, logLines, 2)
	require.True(testInstance, strings.HasPrefix(logLines[0], "DEBUG\t"), logLines[0])
	require.True(testInstance, strings.HasPrefix(logLines[1], "WARN\t"+testFetchFailureMessageConstant), logLines[1])
	require.False(testInstance, json.Valid([]byte(logLines[1])))
}

func TestLoggerFactoryRejectsUnsupportedChoices(testInstance *testing.T) {
	testCases := []struct {
		name          string
		level         utils.LogLevel
		format        utils.LogFormat
		expectedError error
	}{
		{name: "level", level: utils.LogLevel("verbose"), format: utils.LogFormatStructured, expectedError: utils.ErrUnsupportedLogLevel},
		{name: "format", level: utils.LogLevelInfo, format: utils.LogFormat("xml"), expectedError: utils.ErrUnsupportedLogFormat},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.level, testCase.format)
			require.Nil(testInstance, logger)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestLogChoicesMatchFactory(testInstance *testing.T) {
	factory := utils.NewLoggerFactory(utils.WithOutputPath(filepath.Join(testInstance.TempDir(), testLogFileNameConstant)))
	for _, level := range utils.LogLevels() {
		for _, format := range utils.LogFormats() {
			_, creationError := factory.CreateLogger(utils.LogLevel(level), utils.LogFormat(format))
			require.NoError(testInstance, creationError, "%s/%s", level, format)
		}
	}
}
