package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/iac"
	"github.com/adsysio/adsys/internal/printer"
)

// IacTfInitCommand initializes a Terraform working directory.
type IacTfInitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dir          string
	backendSpecs []string
}

// NewIacTfInitCommand returns the iac tf-init command.
func NewIacTfInitCommand(rootCmd *RootCommand, iacCmd *kingpin.CmdClause) *IacTfInitCommand {
	c := &IacTfInitCommand{rootCmd: rootCmd}

	c.Cmd = iacCmd.Command("tf-init", "Initialize a Terraform working directory.")
	c.Cmd.Flag("dir", "Terraform working directory.").Default(".").StringVar(&c.dir)
	c.Cmd.Flag("backend-config", "Backend config value (KEY=VALUE). Can be repeated.").StringsVar(&c.backendSpecs)

	return c
}

func (c IacTfInitCommand) Name() string { return c.Cmd.FullCommand() }

func (c IacTfInitCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	backendConfig, err := parseKeyValueSpecs(c.backendSpecs)
	if err != nil {
		return fmt.Errorf("invalid --backend-config value: %w", err)
	}

	tf, err := iac.NewTerraform(iac.TerraformConfig{
		Dir:    c.dir,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create terraform wrapper: %w", err)
	}

	if err := tf.Init(ctx, backendConfig); err != nil {
		return err
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage("Terraform initialized")
}
