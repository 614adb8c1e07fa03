package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitupdater/internal/askpass"
	"github.com/temirov/gitupdater/internal/credentials"
	"github.com/temirov/gitupdater/internal/discovery"
	"github.com/temirov/gitupdater/internal/execshell"
	"github.com/temirov/gitupdater/internal/repository"
	"github.com/temirov/gitupdater/internal/scan"
	"github.com/temirov/gitupdater/internal/ui"
	"github.com/temirov/gitupdater/internal/utils"
	"github.com/temirov/gitupdater/internal/utils/flags"
	pathutils "github.com/temirov/gitupdater/internal/utils/path"
)

const (
	applicationNameConstant                 = "gitupdater"
	applicationUseConstant                  = applicationNameConstant + " [search-path]"
	applicationShortDescriptionConstant     = "Report and reconcile the git checkouts under a directory"
	applicationLongDescriptionConstant      = "gitupdater inspects every immediate subdirectory of the search path, reports local changes, fetches remotes, and compares each local branch with its remote counterparts."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	fetchFlagNameConstant                   = "fetch"
	fetchFlagUsageConstant                  = "Fetch all remotes before comparing branches."
	updateLocalFlagNameConstant             = "update-local"
	updateLocalFlagUsageConstant            = "Fast-forward local branches that are behind a remote."
	updateRemoteFlagNameConstant            = "update-remote"
	updateRemoteFlagUsageConstant           = "Push local branches that are ahead of a remote."
	submodulesFlagNameConstant              = "submodules"
	submodulesFlagUsageConstant             = "Also inspect submodules for local changes."
	timeoutFlagNameConstant                 = "timeout"
	timeoutFlagUsageConstant                = "Override the per-command git timeout (0 disables it)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the gitupdater version and exit."
	versionOutputTemplateConstant           = "%s version: %s\n"
	unknownVersionConstant                  = "(devel)"
	environmentPrefixConstant               = "GITUPDATER"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	searchPathErrorTemplateConstant         = "unable to resolve search path %q: %w"
	executorErrorTemplateConstant           = "unable to create git executor: %w"
	commandTableErrorTemplateConstant       = "invalid git command configuration: %w"
	segmentOpenErrorTemplateConstant        = "unable to create credential segment: %w"
	segmentAttachErrorTemplateConstant      = "unable to attach to credential segment: %w"
	executablePathErrorTemplateConstant     = "unable to locate gitupdater executable: %w"
	segmentCloseFailedMessageConstant       = "unable to remove credential segment"
	scanStartedMessageConstant              = "scan started"
	logFieldSearchPathConstant              = "search_path"
	logFieldSegmentPathConstant             = "segment_path"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	maximumSearchPathArgumentsConstant      = 1
)

type scanFlagValues struct {
	fetch             bool
	updateLocal       bool
	updateRemote      bool
	inspectSubmodules bool
	timeout           time.Duration
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	versionFlagValue       bool
	scanFlags              scanFlagValues
	commandContextAccessor utils.CommandContextAccessor
	arguments              []string
	lookupEnvironment      func(string) (string, bool)
	standardOutput         io.Writer
	versionResolver        func() string
	executablePathResolver func() (string, error)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		arguments:              os.Args[1:],
		lookupEnvironment:      os.LookupEnv,
		standardOutput:         os.Stdout,
		versionResolver:        resolveBuildVersion,
		executablePathResolver: os.Executable,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(maximumSearchPathArgumentsConstant),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogLevelWarn), utils.LogLevels(), logLevelFlagUsageConstant))
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatStructured), utils.LogFormats(), logFormatFlagUsageConstant))

	commandFlags := cobraCommand.Flags()
	flags.AddToggleFlag(commandFlags, &application.scanFlags.fetch, fetchFlagNameConstant, "", true, fetchFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, &application.scanFlags.updateLocal, updateLocalFlagNameConstant, "", false, updateLocalFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, &application.scanFlags.updateRemote, updateRemoteFlagNameConstant, "", false, updateRemoteFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, &application.scanFlags.inspectSubmodules, submodulesFlagNameConstant, "", false, submodulesFlagUsageConstant)
	commandFlags.DurationVar(&application.scanFlags.timeout, timeoutFlagNameConstant, 0, timeoutFlagUsageConstant)
	commandFlags.BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command, or answers a single askpass request when git started this
// process as its askpass program. The logger is flushed in both cases.
func (application *Application) Execute(executionContext context.Context) error {
	var executionError error
	if askpass.IsHelperInvocation(application.arguments, application.lookupEnvironment) {
		executionError = application.runAskpassHelper()
	} else {
		application.rootCommand.SetArgs(application.normalizedArguments(application.arguments))
		application.rootCommand.SetOut(application.standardOutput)
		executionError = application.rootCommand.ExecuteContext(executionContext)
	}

	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes it.
func Execute(executionContext context.Context) error {
	return NewApplication().Execute(executionContext)
}

func (application *Application) normalizedArguments(arguments []string) []string {
	normalized := flags.NormalizeToggleArguments(application.rootCommand.Flags(), arguments)
	if normalized == nil {
		return []string{}
	}
	return normalized
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	if loadError := application.loadConfiguration(application.configurationFilePath); loadError != nil {
		return loadError
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	application.applyScanFlagOverrides(command)

	if loggerError := application.createLogger(); loggerError != nil {
		return loggerError
	}

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
	}

	return nil
}

func (application *Application) loadConfiguration(configurationFilePath string) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	// Helpers run in the repository directory, so the forwarded path must be absolute.
	if len(loadedConfiguration.ConfigFileUsed) > 0 {
		if absolutePath, absoluteError := filepath.Abs(loadedConfiguration.ConfigFileUsed); absoluteError == nil {
			loadedConfiguration.ConfigFileUsed = absolutePath
		}
	}
	application.configurationMetadata = loadedConfiguration
	return nil
}

func (application *Application) createLogger() error {
	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	return nil
}

func (application *Application) applyScanFlagOverrides(command *cobra.Command) {
	if command == nil {
		return
	}
	commandFlags := command.Flags()
	if commandFlags.Changed(fetchFlagNameConstant) {
		application.configuration.Scan.Fetch = application.scanFlags.fetch
	}
	if commandFlags.Changed(updateLocalFlagNameConstant) {
		application.configuration.Scan.UpdateLocal = application.scanFlags.updateLocal
	}
	if commandFlags.Changed(updateRemoteFlagNameConstant) {
		application.configuration.Scan.UpdateRemote = application.scanFlags.updateRemote
	}
	if commandFlags.Changed(submodulesFlagNameConstant) {
		application.configuration.Scan.InspectSubmodules = application.scanFlags.inspectSubmodules
	}
	if commandFlags.Changed(timeoutFlagNameConstant) {
		application.configuration.Git.CommandTimeout = application.scanFlags.timeout
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	if application.versionFlagValue {
		_, writeError := fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.versionResolver())
		return writeError
	}

	searchPathArgument := ""
	if len(arguments) > 0 {
		searchPathArgument = arguments[0]
	}
	searchPath, resolveError := pathutils.NewDirectoryResolver(nil).Resolve(searchPathArgument)
	if resolveError != nil {
		return fmt.Errorf(searchPathErrorTemplateConstant, searchPathArgument, resolveError)
	}

	executor, executorError := application.newGitExecutor()
	if executorError != nil {
		return executorError
	}
	commands, commandsError := repository.NewCommandTable(application.configuration.Git.Commands)
	if commandsError != nil {
		return fmt.Errorf(commandTableErrorTemplateConstant, commandsError)
	}

	segment, segmentError := credentials.Open(application.configuration.Credentials.SegmentOptions())
	if segmentError != nil {
		return fmt.Errorf(segmentOpenErrorTemplateConstant, segmentError)
	}
	defer func() {
		if closeError := segment.Close(); closeError != nil {
			application.logger.Warn(segmentCloseFailedMessageConstant, zap.String(logFieldSegmentPathConstant, segment.Path()), zap.Error(closeError))
		}
	}()

	executablePath, executablePathError := application.executablePathResolver()
	if executablePathError != nil {
		return fmt.Errorf(executablePathErrorTemplateConstant, executablePathError)
	}
	configurationFilePath, _ := application.commandContextAccessor.ConfigurationFilePath(command.Context())
	overlay, overlayError := askpass.NewOverlay(executablePath, configurationFilePath,
		askpass.WithForwardedVariable(configurationEnvironmentVariable(credentialsSegmentNameConfigKeyConstant), segment.Name()),
		askpass.WithForwardedVariable(configurationEnvironmentVariable(credentialsSegmentDirectoryConfigKeyConstant), segment.Directory()),
	)
	if overlayError != nil {
		return overlayError
	}

	service, serviceError := application.newScanService(executor, commands, overlay, command.OutOrStdout())
	if serviceError != nil {
		return serviceError
	}

	application.logger.Info(scanStartedMessageConstant, zap.String(logFieldSearchPathConstant, searchPath), zap.String(logFieldSegmentPathConstant, segment.Path()))
	_, runError := service.Run(command.Context(), searchPath)
	return runError
}

func (application *Application) newGitExecutor() (*execshell.ShellExecutor, error) {
	executorOptions := []execshell.ShellExecutorOption{
		execshell.WithGitExecutable(application.configuration.Git.Executable),
		execshell.WithDefaultTimeout(application.configuration.Git.CommandTimeout),
	}
	if application.humanReadableLoggingEnabled() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(application.logger)))
	}

	executor, executorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner(), executorOptions...)
	if executorError != nil {
		return nil, fmt.Errorf(executorErrorTemplateConstant, executorError)
	}
	return executor, nil
}

func (application *Application) newScanService(executor *execshell.ShellExecutor, commands repository.CommandTable, overlay *askpass.Overlay, output io.Writer) (*scan.Service, error) {
	scanConfiguration := application.configuration.Scan.Sanitize()

	inspector, inspectorError := repository.NewInspector(executor, commands, application.logger, repository.WithSubmoduleInspection(scanConfiguration.InspectSubmodules))
	if inspectorError != nil {
		return nil, inspectorError
	}
	fetcher, fetcherError := repository.NewFetchCoordinator(executor, commands, overlay, application.logger)
	if fetcherError != nil {
		return nil, fetcherError
	}
	reconciler, reconcilerError := repository.NewHeadReconciler(executor, commands, application.logger)
	if reconcilerError != nil {
		return nil, reconcilerError
	}
	updater, updaterError := repository.NewBranchUpdater(executor, commands, overlay, application.logger)
	if updaterError != nil {
		return nil, updaterError
	}

	return scan.NewService(scan.Dependencies{
		GitExecutor: executor,
		Commands:    commands,
		Lister:      discovery.NewDirectoryLister(scanConfiguration.IgnoreMarker),
		Inspector:   inspector,
		Fetcher:     fetcher,
		Comparer:    reconciler,
		Updater:     updater,
		Output:      utils.NewFlushingWriter(output),
		Logger:      application.logger,
	}, scanConfiguration)
}

// runAskpassHelper answers one request from the credential segment published by the parent run.
// Git starts the helper inside the checkout, so only the file forwarded by the parent is read.
func (application *Application) runAskpassHelper() error {
	application.configurationLoader = application.configurationLoader.WithoutSearchPaths()
	configurationFilePath, _ := application.lookupEnvironment(askpass.ConfigurationFileVariableName)
	if loadError := application.loadConfiguration(strings.TrimSpace(configurationFilePath)); loadError != nil {
		return loadError
	}
	if loggerError := application.createLogger(); loggerError != nil {
		return loggerError
	}

	requestKey, requestError := askpass.RequestKey(application.arguments)
	if requestError != nil {
		return requestError
	}

	segment, attachError := credentials.Attach(application.configuration.Credentials.SegmentOptions())
	if attachError != nil {
		return fmt.Errorf(segmentAttachErrorTemplateConstant, attachError)
	}
	defer segment.Close()

	manager, managerError := credentials.NewManager(credentials.NewSegmentStore(segment), application.logger)
	if managerError != nil {
		return managerError
	}
	helper, helperError := askpass.NewHelper(manager, askpass.NewTerminalPrompter(), application.standardOutput, application.logger)
	if helperError != nil {
		return helperError
	}
	return helper.Respond(requestKey)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func resolveBuildVersion() string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 {
		return unknownVersionConstant
	}
	return buildInformation.Main.Version
}
