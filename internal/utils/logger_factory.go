package utils

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant         = "debug"
	logLevelInfoStringConstant          = "info"
	logLevelWarnStringConstant          = "warn"
	logLevelErrorStringConstant         = "error"
	logFormatStructuredStringConstant   = "structured"
	logFormatConsoleStringConstant      = "console"
	jsonZapEncodingStringConstant       = "json"
	consoleZapEncodingStringConstant    = "console"
	standardErrorOutputPathConstant     = "stderr"
	unsupportedLogLevelMessageConstant  = "unsupported log level"
	unsupportedLogFormatMessageConstant = "unsupported log format"
	unsupportedChoiceTemplateConstant   = "%w: %s"
	loggerBuildFailureTemplateConstant  = "unable to build logger: %w"
	consoleMessageKeyConstant           = "message"
	consoleLevelKeyConstant             = "level"
	structuredTimestampKeyConstant      = "timestamp"
	structuredMessageKeyConstant        = "message"
	structuredLevelKeyConstant          = "level"
	structuredLineEndingConstant        = "\n"
	structuredNameKeyConstant           = "logger"
)

// ErrUnsupportedLogLevel reports a log level outside LogLevels.
var ErrUnsupportedLogLevel = errors.New(unsupportedLogLevelMessageConstant)

// ErrUnsupportedLogFormat reports a log format outside LogFormats.
var ErrUnsupportedLogFormat = errors.New(unsupportedLogFormatMessageConstant)

// LogLevel enumerates supported logging granularities.
type LogLevel string

const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LogLevels lists the accepted level names in increasing severity.
func LogLevels() []string {
	return []string{logLevelDebugStringConstant, logLevelInfoStringConstant, logLevelWarnStringConstant, logLevelErrorStringConstant}
}

// LogFormats lists the accepted format names.
func LogFormats() []string {
	return []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}
}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerFactoryOption customizes a LoggerFactory.
type LoggerFactoryOption func(factory *LoggerFactory)

// WithOutputPath sends log entries to a zap sink path instead of standard error.
func WithOutputPath(outputPath string) LoggerFactoryOption {
	return func(factory *LoggerFactory) {
		if len(strings.TrimSpace(outputPath)) > 0 {
			factory.outputPath = outputPath
		}
	}
}

// LoggerFactory builds zap loggers. Standard output is never a sink because it
// carries scan summaries and askpass replies.
type LoggerFactory struct {
	outputPath string
}

// NewLoggerFactory constructs a logger factory writing to standard error unless overridden.
func NewLoggerFactory(options ...LoggerFactoryOption) *LoggerFactory {
	factory := &LoggerFactory{outputPath: standardErrorOutputPathConstant}
	for _, option := range options {
		if option != nil {
			option(factory)
		}
	}
	return factory
}

// CreateLogger produces a logger for the requested level and format, matched case-insensitively.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[LogLevel(normalizeChoice(string(requestedLogLevel)))]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedChoiceTemplateConstant, ErrUnsupportedLogLevel, requestedLogLevel)
	}

	configuration := zap.NewProductionConfig()
	switch LogFormat(normalizeChoice(string(requestedLogFormat))) {
	case LogFormatStructured:
		configuration.Encoding = jsonZapEncodingStringConstant
		configuration.EncoderConfig = structuredEncoderConfiguration()
	case LogFormatConsole:
		configuration.Encoding = consoleZapEncodingStringConstant
		configuration.EncoderConfig = consoleEncoderConfiguration()
		configuration.Sampling = nil
	default:
		return nil, fmt.Errorf(unsupportedChoiceTemplateConstant, ErrUnsupportedLogFormat, requestedLogFormat)
	}

	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.OutputPaths = []string{factory.outputPath}
	configuration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	configuration.DisableStacktrace = true
	configuration.DisableCaller = true

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, fmt.Errorf(loggerBuildFailureTemplateConstant, buildError)
	}
	return logger, nil
}

func normalizeChoice(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func structuredEncoderConfiguration() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        structuredTimestampKeyConstant,
		LevelKey:       structuredLevelKeyConstant,
		NameKey:        structuredNameKeyConstant,
		MessageKey:     structuredMessageKeyConstant,
		LineEnding:     structuredLineEndingConstant,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// consoleEncoderConfiguration drops timestamps so interleaved git progress stays readable.
func consoleEncoderConfiguration() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:       consoleLevelKeyConstant,
		MessageKey:     consoleMessageKeyConstant,
		LineEnding:     structuredLineEndingConstant,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
