package commands

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/ulid/v2"

	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/printer"
	"github.com/adsysio/adsys/internal/shell"
	"github.com/adsysio/adsys/internal/storage/sqlite"
)

// RunExecCommand executes a command on the local host and records it in the
// execution history.
type RunExecCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	command   []string
	cwd       string
	useShell  bool
	envSpecs  []string
	timeout   time.Duration
	input     string
	noCheck   bool
	noHistory bool
}

// NewRunExecCommand returns the run exec command.
func NewRunExecCommand(rootCmd *RootCommand, runCmd *kingpin.CmdClause) *RunExecCommand {
	c := &RunExecCommand{rootCmd: rootCmd}

	c.Cmd = runCmd.Command("exec", "Execute a command on the local host.")
	c.Cmd.Arg("command", "Command to execute (use -- before command).").Required().StringsVar(&c.command)
	c.Cmd.Flag("cwd", "Working directory for command execution.").Short('w').StringVar(&c.cwd)
	c.Cmd.Flag("shell", "Run the command through /bin/sh -c.").BoolVar(&c.useShell)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("timeout", "Kill the command after this duration (e.g. 30s).").DurationVar(&c.timeout)
	c.Cmd.Flag("input", "String supplied on the command's standard input.").StringVar(&c.input)
	c.Cmd.Flag("no-check", "Do not treat a non-zero exit code as a failure.").BoolVar(&c.noCheck)
	c.Cmd.Flag("no-history", "Do not record the execution in the history database.").BoolVar(&c.noHistory)

	return c
}

func (c RunExecCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunExecCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cmdEnv, err := parseEnvSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	executor, err := shell.NewExecutor(shell.ExecutorConfig{
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create executor: %w", err)
	}

	req := shell.Request{
		Dir:     c.cwd,
		Env:     cmdEnv,
		Input:   c.input,
		Timeout: c.timeout,
	}
	if c.useShell {
		req.Command = strings.Join(c.command, " ")
		req.Shell = true
	} else {
		req.Argv = c.command
	}

	result, err := executor.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not execute command: %w", err)
	}

	if !c.noHistory {
		c.recordExecution(ctx, *result)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintExecResult(*result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	// Mirror the command's exit code unless failures were opted out of.
	if !c.noCheck && result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}

	return nil
}

// recordExecution stores the execution in the history database. Recording is
// best-effort, a storage failure only warns.
func (c RunExecCommand) recordExecution(ctx context.Context, result model.ExecResult) {
	logger := c.rootCmd.Logger

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		logger.Warningf("Could not open history database: %s", err)
		return
	}

	execution := model.Execution{
		ID:         ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String(),
		Command:    result.Command,
		ExitCode:   result.ExitCode,
		WorkingDir: c.cwd,
		Duration:   result.Duration,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.CreateExecution(ctx, execution); err != nil && !errors.Is(err, model.ErrAlreadyExists) {
		logger.Warningf("Could not record execution: %s", err)
	}
}
