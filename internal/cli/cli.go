// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/dirtree/internal/config"
	"github.com/temirov/dirtree/internal/export"
	"github.com/temirov/dirtree/internal/output"
	"github.com/temirov/dirtree/internal/services/clipboard"
	"github.com/temirov/dirtree/internal/tokenizer"
	"github.com/temirov/dirtree/internal/tree"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	configFlagName          = "config"
	logLevelFlagName        = "log-level"
	logFileFlagName         = "log-file"
	showHiddenFlagName      = "all"
	showHiddenFlagShort     = "a"
	includeFilesFlagName    = "files"
	excludeFilesFlagName    = "no-files"
	excludeFilesFlagShort   = "n"
	showFullPathFlagName    = "show-path"
	showFullPathFlagShort   = "p"
	depthFlagName           = "depth"
	depthFlagShort          = "d"
	outputFlagName          = "output"
	outputFlagShort         = "o"
	summaryFlagName         = "summary"
	summaryFlagShort        = "s"
	copyFlagName            = "copy"
	tokensFlagName          = "tokens"
	modelFlagName           = "model"
	globalFlagName          = "global"
	forceFlagName           = "force"
	defaultPath             = "."
	versionTemplate         = "dirtree version: {{.Version}}\n"
	rootUse                 = "dirtree"
	rootShortDescription    = "dirtree renders directory hierarchies as text trees"
	rootLongDescription     = `dirtree prints the structure of one or more folders using box-drawing connectors.
Directories are listed before files and names are sorted case-insensitively.
Defaults may be stored in .dirtree.yaml or ~/.dirtree/config.yaml; flags override them.`
	treeUse              = "tree [paths...]"
	treeAlias            = "t"
	treeShortDescription = "display directory tree (" + treeAlias + ")"
	treeLongDescription  = `Render the hierarchy under each path. Without arguments the working directory is used.
Subdirectories that cannot be listed are reported as warnings and skipped.
Boolean flags take true/false, yes/no or on/off as the next argument; other forms such as
y, n, 1 or 0 must be attached with "=" (--all=y).`
	treeUsageExample = `  # Render the current folder including hidden entries
  dirtree tree --all

  # Show only folders two levels deep and save them to structure.txt
  dirtree t --no-files --depth 2 --output structure .`
	initUse              = "init"
	initShortDescription = "write the default configuration file"
	initLongDescription  = `Write the default configuration to .dirtree.yaml in the working directory,
or to ~/.dirtree/config.yaml with --global. Existing files are kept unless --force is given.`

	configFlagDescription       = "path to a configuration file"
	logLevelFlagDescription     = "log level (debug, info, warn, error)"
	logFileFlagDescription      = "also write JSON logs to this rotated file"
	showHiddenFlagDescription   = "include hidden files and directories"
	includeFilesFlagDescription = "include files as well as directories"
	excludeFilesFlagDescription = "list directories only"
	showFullPathFlagDescription = "append the absolute path to every name"
	depthFlagDescription        = "maximum depth to render (0 for unlimited)"
	outputFlagDescription       = "save the tree to this text file (.txt is appended when missing)"
	summaryFlagDescription      = "print directory and file counts"
	copyFlagDescription         = "copy the rendered tree to the clipboard"
	tokensFlagDescription       = "estimate the token count of the rendered tree"
	modelFlagDescription        = "tokenizer model to use for token counting"
	globalFlagDescription       = "write the global configuration instead of the local one"
	forceFlagDescription        = "overwrite an existing configuration file"

	invalidFolderMessage        = "please select a valid folder"
	invalidFolderErrorFormat    = "%s: %w"
	negativeDepthErrorFormat    = "invalid --depth %d: must be zero or positive"
	loadConfigurationErrorLabel = "load configuration"
	initializedMessageFormat    = "configuration written to %s\n"
	reportSeparator             = "\n"

	logMessageExported       = "structure exported"
	logMessageCopied         = "structure copied to clipboard"
	logMessageCopyFailed     = "clipboard copy failed"
	logMessageListingSkipped = "skipping subdirectory"
	logMessageTokenFailed    = "token estimate failed"
	logFieldPath             = "path"
	logFieldRoot             = "root"
	logFieldLines            = "lines"
)

// CounterFactory builds a token counter for a model name.
type CounterFactory func(model string) (tokenizer.Counter, string, error)

// LoggerFactory builds the application logger.
type LoggerFactory func(options utils.LoggerOptions) (*zap.Logger, error)

// application holds the collaborators shared by all commands.
type application struct {
	stdout           io.Writer
	stderr           io.Writer
	workingDirectory string
	loggerFactory    LoggerFactory
	counterFactory   CounterFactory
	copier           clipboard.Copier
	renderer         *tree.Renderer

	configFilePath string
	logLevel       string
	logFilePath    string

	configuration config.ApplicationConfiguration
	logger        *zap.Logger
}

// Execute runs the dirtree application. Interrupt and terminate signals cancel
// any render in progress.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApplication(os.Stdout, os.Stderr)
	rootCommand := app.createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

func newApplication(stdout, stderr io.Writer) *application {
	return &application{
		stdout:         stdout,
		stderr:         stderr,
		loggerFactory:  utils.NewApplicationLogger,
		counterFactory: tokenizer.NewCounter,
		copier:         clipboard.NewService(),
		renderer:       tree.NewRenderer(nil),
		logger:         zap.NewNop(),
	}
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Version:      utils.GetApplicationVersion(),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepare()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.SetOut(app.stdout)
	rootCommand.SetErr(app.stderr)

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&app.configFilePath, configFlagName, "", configFlagDescription)
	persistentFlags.StringVar(&app.logLevel, logLevelFlagName, "", logLevelFlagDescription)
	persistentFlags.StringVar(&app.logFilePath, logFileFlagName, "", logFileFlagDescription)

	rootCommand.AddCommand(
		app.createTreeCommand(),
		app.createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepareLogger builds the logger from command line flags alone, leaving the
// configuration files unread.
func (app *application) prepareLogger() error {
	logger, loggerError := app.loggerFactory(utils.LoggerOptions{
		Level:    app.logLevel,
		FilePath: app.logFilePath,
	})
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	app.logger = logger
	return nil
}

// prepare loads configuration files and builds the logger. Flags given on the
// command line take precedence over configured log settings.
func (app *application) prepare() error {
	loadedConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: app.workingDirectory,
		ExplicitFilePath: app.configFilePath,
	})
	if loadError != nil {
		return fmt.Errorf("%s: %w", loadConfigurationErrorLabel, loadError)
	}
	app.configuration = config.DefaultApplicationConfiguration().Merge(loadedConfiguration)

	loggerOptions := utils.LoggerOptions{
		Level:      app.configuration.Log.Level,
		FilePath:   app.configuration.Log.File,
		MaxSizeMB:  app.configuration.Log.MaxSizeMB,
		MaxBackups: app.configuration.Log.MaxBackups,
		MaxAgeDays: app.configuration.Log.MaxAgeDays,
	}
	if strings.TrimSpace(app.logLevel) != "" {
		loggerOptions.Level = app.logLevel
	}
	if strings.TrimSpace(app.logFilePath) != "" {
		loggerOptions.FilePath = app.logFilePath
	}
	logger, loggerError := app.loggerFactory(loggerOptions)
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	app.logger = logger
	return nil
}

// treeOptions stores the tree command flags.
type treeOptions struct {
	showHidden   bool
	includeFiles bool
	excludeFiles bool
	showFullPath bool
	maxDepth     int
	outputPath   string
	summary      bool
	copy         bool
	tokens       bool
	model        string
}

// runOptions is treeOptions resolved against configuration defaults.
type runOptions struct {
	configuration tree.Configuration
	outputPath    string
	summary       bool
	copy          bool
	tokens        bool
	model         string
}

// createTreeCommand returns the tree subcommand.
func (app *application) createTreeCommand() *cobra.Command {
	var options treeOptions

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			resolved, resolveError := app.resolveTreeOptions(command, options)
			if resolveError != nil {
				return resolveError
			}
			defer func() { _ = app.logger.Sync() }()
			return app.runTree(command.Context(), arguments, resolved)
		},
	}

	flagSet := treeCommand.Flags()
	registerBooleanFlag(flagSet, &options.showHidden, showHiddenFlagName, showHiddenFlagShort, false, showHiddenFlagDescription)
	registerBooleanFlag(flagSet, &options.includeFiles, includeFilesFlagName, "", true, includeFilesFlagDescription)
	registerBooleanFlag(flagSet, &options.excludeFiles, excludeFilesFlagName, excludeFilesFlagShort, false, excludeFilesFlagDescription)
	registerBooleanFlag(flagSet, &options.showFullPath, showFullPathFlagName, showFullPathFlagShort, false, showFullPathFlagDescription)
	flagSet.IntVarP(&options.maxDepth, depthFlagName, depthFlagShort, 0, depthFlagDescription)
	flagSet.StringVarP(&options.outputPath, outputFlagName, outputFlagShort, "", outputFlagDescription)
	registerBooleanFlag(flagSet, &options.summary, summaryFlagName, summaryFlagShort, false, summaryFlagDescription)
	registerBooleanFlag(flagSet, &options.copy, copyFlagName, "", false, copyFlagDescription)
	registerBooleanFlag(flagSet, &options.tokens, tokensFlagName, "", false, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, config.DefaultTokenModel, modelFlagDescription)
	return treeCommand
}

// resolveTreeOptions applies explicit flags over the loaded configuration.
func (app *application) resolveTreeOptions(command *cobra.Command, options treeOptions) (runOptions, error) {
	flags := command.Flags()
	configured := app.configuration.Tree
	defaults := tree.DefaultConfiguration()

	resolved := runOptions{
		configuration: tree.Configuration{
			ShowHidden:   config.BoolValue(configured.ShowHidden, defaults.ShowHidden),
			IncludeFiles: config.BoolValue(configured.IncludeFiles, defaults.IncludeFiles),
			ShowFullPath: config.BoolValue(configured.ShowFullPath, defaults.ShowFullPath),
			MaxDepth:     config.IntValue(configured.MaxDepth, defaults.MaxDepth),
		},
		outputPath: configured.Output,
		summary:    config.BoolValue(configured.Summary, false),
		copy:       config.BoolValue(configured.Clipboard, false),
		tokens:     config.BoolValue(configured.Tokens.Enabled, false),
		model:      configured.Tokens.Model,
	}

	if flags.Changed(showHiddenFlagName) {
		resolved.configuration.ShowHidden = options.showHidden
	}
	if flags.Changed(includeFilesFlagName) {
		resolved.configuration.IncludeFiles = options.includeFiles
	}
	if flags.Changed(excludeFilesFlagName) && options.excludeFiles {
		resolved.configuration.IncludeFiles = false
	}
	if flags.Changed(showFullPathFlagName) {
		resolved.configuration.ShowFullPath = options.showFullPath
	}
	if flags.Changed(depthFlagName) {
		resolved.configuration.MaxDepth = options.maxDepth
	}
	if flags.Changed(outputFlagName) {
		resolved.outputPath = options.outputPath
	}
	if flags.Changed(summaryFlagName) {
		resolved.summary = options.summary
	}
	if flags.Changed(copyFlagName) {
		resolved.copy = options.copy
	}
	if flags.Changed(tokensFlagName) {
		resolved.tokens = options.tokens
	}
	if flags.Changed(modelFlagName) || resolved.model == "" {
		resolved.model = options.model
	}

	if resolved.configuration.MaxDepth < 0 {
		return runOptions{}, fmt.Errorf(negativeDepthErrorFormat, resolved.configuration.MaxDepth)
	}
	return resolved, nil
}

// runTree renders every root concurrently and reports them in argument order.
func (app *application) runTree(ctx context.Context, roots []string, options runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]tree.Result, len(roots))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for rootIndex, rootPath := range roots {
		rootIndex, rootPath := rootIndex, rootPath
		group.Go(func() error {
			result, renderError := app.renderer.RenderContext(groupContext, rootPath, options.configuration)
			if renderError != nil {
				var invalidPathError *tree.InvalidPathError
				if errors.As(renderError, &invalidPathError) {
					return fmt.Errorf(invalidFolderErrorFormat, invalidFolderMessage, renderError)
				}
				return renderError
			}
			results[rootIndex] = result
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	var counter tokenizer.Counter
	if options.tokens {
		createdCounter, _, counterError := app.counterFactory(options.model)
		if counterError != nil {
			app.logger.Warn(logMessageTokenFailed, zap.Error(counterError))
		} else {
			counter = createdCounter
		}
	}

	printer := output.NewPrinter(app.stdout, app.stderr, options.summary)
	var exportedLines []string
	for rootIndex, result := range results {
		for _, listingError := range result.Errors {
			app.logger.Warn(logMessageListingSkipped, zap.String(logFieldPath, listingError.Path), zap.Error(listingError.Err))
		}
		report := output.Report{Result: result}
		if counter != nil {
			estimate, estimateError := tokenizer.EstimateText(counter, result.Text())
			if estimateError != nil {
				app.logger.Warn(logMessageTokenFailed, zap.String(logFieldRoot, result.RootPath), zap.Error(estimateError))
			} else {
				report.Tokens = &estimate
			}
		}
		if printError := printer.Print(report); printError != nil {
			return printError
		}
		if rootIndex > 0 {
			exportedLines = append(exportedLines, "")
		}
		exportedLines = append(exportedLines, result.Texts()...)
	}

	if strings.TrimSpace(options.outputPath) != "" {
		destinationPath, resolveError := export.ResolveTextPath(options.outputPath)
		if resolveError != nil {
			return resolveError
		}
		if writeError := export.WriteText(destinationPath, exportedLines); writeError != nil {
			return writeError
		}
		app.logger.Info(logMessageExported, zap.String(logFieldPath, destinationPath), zap.Int(logFieldLines, len(exportedLines)))
	}

	if options.copy {
		clipboardText := strings.Join(exportedLines, reportSeparator) + reportSeparator
		if copyError := app.copier.Copy(clipboardText); copyError != nil {
			app.logger.Warn(logMessageCopyFailed, zap.Error(copyError))
		} else {
			app.logger.Debug(logMessageCopied, zap.Int(logFieldLines, len(exportedLines)))
		}
	}
	return nil
}

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepareLogger()
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.workingDirectory,
			})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), initializedMessageFormat, destinationPath)
			return printError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, "", false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, "", false, forceFlagDescription)
	return initCommand
}
