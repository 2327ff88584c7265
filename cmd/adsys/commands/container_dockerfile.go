package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/container"
	"github.com/adsysio/adsys/internal/printer"
)

// ContainerDockerfileCommand generates a Dockerfile installing packages on a
// base image.
type ContainerDockerfileCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	baseImage    string
	distroFamily string
	packages     []string
	workdir      string
	output       string
}

// NewContainerDockerfileCommand returns the container gen-dockerfile command.
func NewContainerDockerfileCommand(rootCmd *RootCommand, containerCmd *kingpin.CmdClause) *ContainerDockerfileCommand {
	c := &ContainerDockerfileCommand{rootCmd: rootCmd}

	c.Cmd = containerCmd.Command("gen-dockerfile", "Generate a Dockerfile installing packages on a base image.")
	c.Cmd.Arg("base-image", "Base image reference.").Required().StringVar(&c.baseImage)
	c.Cmd.Flag("family", "Distro family of the base image (debian, fedora, alpine...).").Default("debian").StringVar(&c.distroFamily)
	c.Cmd.Flag("pkg", "Package to install. Can be repeated.").StringsVar(&c.packages)
	c.Cmd.Flag("workdir", "WORKDIR instruction value.").StringVar(&c.workdir)
	c.Cmd.Flag("output", "File to write the Dockerfile to. Empty prints to stdout.").Short('o').StringVar(&c.output)

	return c
}

func (c ContainerDockerfileCommand) Name() string { return c.Cmd.FullCommand() }

func (c ContainerDockerfileCommand) Run(ctx context.Context) error {
	b := container.NewPackageBuilder(c.baseImage, c.distroFamily)
	if err := b.Install(c.packages); err != nil {
		return fmt.Errorf("could not generate install instruction: %w", err)
	}
	if c.workdir != "" {
		b.Workdir(c.workdir)
	}

	if c.output != "" {
		if err := b.Write(c.output); err != nil {
			return fmt.Errorf("could not write Dockerfile: %w", err)
		}
		p := printer.NewTablePrinter(c.rootCmd.Stdout)
		return p.PrintMessage(fmt.Sprintf("Dockerfile written to %s", c.output))
	}

	_, err := fmt.Fprint(c.rootCmd.Stdout, b.String())
	return err
}
