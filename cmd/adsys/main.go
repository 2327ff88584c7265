package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/adsysio/adsys/cmd/adsys/commands"
	"github.com/adsysio/adsys/internal/log"
	loglogrus "github.com/adsysio/adsys/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("adsys", "Sysadmin automation toolbox.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).

	// Local execution subcommands share a parent command.
	runCmd := app.Command("run", "Execute commands on the local host.")
	runExecCmd := commands.NewRunExecCommand(rootCmd, runCmd)
	runHistoryCmd := commands.NewRunHistoryCommand(rootCmd, runCmd)

	// Package management subcommands share a parent command.
	pkgCmd := app.Command("pkg", "Manage system packages.")
	pkgInstallCmd := commands.NewPkgInstallCommand(rootCmd, pkgCmd)
	pkgRemoveCmd := commands.NewPkgRemoveCommand(rootCmd, pkgCmd)
	pkgUpdateCmd := commands.NewPkgUpdateCommand(rootCmd, pkgCmd)

	// Container subcommands share a parent command.
	containerCmd := app.Command("container", "Manage containers.")
	containerRunCmd := commands.NewContainerRunCommand(rootCmd, containerCmd)
	containerStopCmd := commands.NewContainerStopCommand(rootCmd, containerCmd)
	containerRmCmd := commands.NewContainerRmCommand(rootCmd, containerCmd)
	containerPsCmd := commands.NewContainerPsCommand(rootCmd, containerCmd)
	containerIPCmd := commands.NewContainerIPCommand(rootCmd, containerCmd)
	containerDockerfileCmd := commands.NewContainerDockerfileCommand(rootCmd, containerCmd)

	// Cloud subcommands share a parent command with provider selection flags.
	cloudCmd := commands.NewCloudCommand(app)
	cloudListInstancesCmd := commands.NewCloudListInstancesCommand(rootCmd, cloudCmd)
	cloudStartInstanceCmd := commands.NewCloudStartInstanceCommand(rootCmd, cloudCmd)
	cloudStopInstanceCmd := commands.NewCloudStopInstanceCommand(rootCmd, cloudCmd)
	cloudUploadCmd := commands.NewCloudUploadCommand(rootCmd, cloudCmd)
	cloudDownloadCmd := commands.NewCloudDownloadCommand(rootCmd, cloudCmd)

	// Infrastructure-as-code subcommands share a parent command.
	iacCmd := app.Command("iac", "Run infrastructure-as-code tools.")
	iacTfInitCmd := commands.NewIacTfInitCommand(rootCmd, iacCmd)
	iacTfPlanCmd := commands.NewIacTfPlanCommand(rootCmd, iacCmd)
	iacTfApplyCmd := commands.NewIacTfApplyCommand(rootCmd, iacCmd)
	iacTfOutputCmd := commands.NewIacTfOutputCommand(rootCmd, iacCmd)
	iacAnsibleCmd := commands.NewIacAnsibleCommand(rootCmd, iacCmd)
	iacKubectlCmd := commands.NewIacKubectlCommand(rootCmd, iacCmd)

	// Authentik subcommands share a parent command with connection flags.
	authentikCmd := commands.NewAuthentikCommand(app)
	authentikUserListCmd := commands.NewAuthentikUserListCommand(rootCmd, authentikCmd)
	authentikUserCreateCmd := commands.NewAuthentikUserCreateCommand(rootCmd, authentikCmd)
	authentikUserDeleteCmd := commands.NewAuthentikUserDeleteCommand(rootCmd, authentikCmd)
	authentikGroupListCmd := commands.NewAuthentikGroupListCommand(rootCmd, authentikCmd)
	authentikGroupCreateCmd := commands.NewAuthentikGroupCreateCommand(rootCmd, authentikCmd)
	authentikOAuthApplyCmd := commands.NewAuthentikOAuthApplyCommand(rootCmd, authentikCmd)
	authentikMigrateCmd := commands.NewAuthentikMigrateCommand(rootCmd, authentikCmd)

	cmds := map[string]commands.Command{
		runExecCmd.Name():              runExecCmd,
		runHistoryCmd.Name():           runHistoryCmd,
		pkgInstallCmd.Name():           pkgInstallCmd,
		pkgRemoveCmd.Name():            pkgRemoveCmd,
		pkgUpdateCmd.Name():            pkgUpdateCmd,
		containerRunCmd.Name():         containerRunCmd,
		containerStopCmd.Name():        containerStopCmd,
		containerRmCmd.Name():          containerRmCmd,
		containerPsCmd.Name():          containerPsCmd,
		containerIPCmd.Name():          containerIPCmd,
		containerDockerfileCmd.Name():  containerDockerfileCmd,
		cloudListInstancesCmd.Name():   cloudListInstancesCmd,
		cloudStartInstanceCmd.Name():   cloudStartInstanceCmd,
		cloudStopInstanceCmd.Name():    cloudStopInstanceCmd,
		cloudUploadCmd.Name():          cloudUploadCmd,
		cloudDownloadCmd.Name():        cloudDownloadCmd,
		iacTfInitCmd.Name():            iacTfInitCmd,
		iacTfPlanCmd.Name():            iacTfPlanCmd,
		iacTfApplyCmd.Name():           iacTfApplyCmd,
		iacTfOutputCmd.Name():          iacTfOutputCmd,
		iacAnsibleCmd.Name():           iacAnsibleCmd,
		iacKubectlCmd.Name():           iacKubectlCmd,
		authentikUserListCmd.Name():    authentikUserListCmd,
		authentikUserCreateCmd.Name():  authentikUserCreateCmd,
		authentikUserDeleteCmd.Name():  authentikUserDeleteCmd,
		authentikGroupListCmd.Name():   authentikGroupListCmd,
		authentikGroupCreateCmd.Name(): authentikGroupCreateCmd,
		authentikOAuthApplyCmd.Name():  authentikOAuthApplyCmd,
		authentikMigrateCmd.Name():     authentikMigrateCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Auto-suppress logging for commands that produce structured output (table/JSON)
	// to prevent log noise from mixing with printer output in the terminal.
	// Users can still enable logging with --debug.
	printerCommands := map[string]bool{
		"run history":           true,
		"container ps":          true,
		"container ip":          true,
		"cloud list-instances":  true,
		"iac tf-output":         true,
		"authentik list-users":  true,
		"authentik list-groups": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
