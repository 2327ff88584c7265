package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/printer"
)

// ContainerRunCommand runs a container.
type ContainerRunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	image       string
	command     []string
	name        string
	detach      bool
	portSpecs   []string
	envSpecs    []string
	volumeSpecs []string
	waitForLog  string
	waitTimeout time.Duration
	autoRemove  bool
}

// NewContainerRunCommand returns the container run command.
func NewContainerRunCommand(rootCmd *RootCommand, containerCmd *kingpin.CmdClause) *ContainerRunCommand {
	c := &ContainerRunCommand{rootCmd: rootCmd}

	c.Cmd = containerCmd.Command("run", "Run a container, pulling the image if needed.")
	c.Cmd.Arg("image", "Image reference to run.").Required().StringVar(&c.image)
	c.Cmd.Arg("command", "Command overriding the image command (use -- before command).").StringsVar(&c.command)
	c.Cmd.Flag("name", "Container name. An existing container with the same name is replaced.").StringVar(&c.name)
	c.Cmd.Flag("detach", "Run the container in the background.").Short('d').BoolVar(&c.detach)
	c.Cmd.Flag("port", "Port mapping (HOST:CONTAINER). Can be repeated.").Short('p').StringsVar(&c.portSpecs)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("volume", "Volume mapping (HOST:CONTAINER). Can be repeated.").Short('v').StringsVar(&c.volumeSpecs)
	c.Cmd.Flag("wait-for-log", "Block until this substring appears in the container logs (detached only).").StringVar(&c.waitForLog)
	c.Cmd.Flag("wait-timeout", "Bound for the log wait.").Default("60s").DurationVar(&c.waitTimeout)
	c.Cmd.Flag("rm", "Remove the container when it exits.").BoolVar(&c.autoRemove)

	return c
}

func (c ContainerRunCommand) Name() string { return c.Cmd.FullCommand() }

func (c ContainerRunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	env, err := parseEnvSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}
	ports, err := parsePortSpecs(c.portSpecs)
	if err != nil {
		return fmt.Errorf("invalid --port value: %w", err)
	}
	volumes, err := parseVolumeSpecs(c.volumeSpecs)
	if err != nil {
		return fmt.Errorf("invalid --volume value: %w", err)
	}

	mgr, err := newContainerManager(logger)
	if err != nil {
		return err
	}

	cont, err := mgr.RunContainer(ctx, model.ContainerRunConfig{
		Image:       c.image,
		Name:        c.name,
		Detach:      c.detach,
		Ports:       ports,
		Env:         env,
		Volumes:     volumes,
		Command:     c.command,
		WaitForLog:  c.waitForLog,
		WaitTimeout: c.waitTimeout,
		AutoRemove:  c.autoRemove,
	})
	if err != nil {
		return fmt.Errorf("could not run container: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Container %s (%s) started", cont.Name, cont.ID))
}
