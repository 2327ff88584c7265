package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/iac"
	"github.com/adsysio/adsys/internal/printer"
)

// IacTfApplyCommand applies Terraform changes.
type IacTfApplyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dir      string
	planFile string
}

// NewIacTfApplyCommand returns the iac tf-apply command.
func NewIacTfApplyCommand(rootCmd *RootCommand, iacCmd *kingpin.CmdClause) *IacTfApplyCommand {
	c := &IacTfApplyCommand{rootCmd: rootCmd}

	c.Cmd = iacCmd.Command("tf-apply", "Apply Terraform changes without interactive approval.")
	c.Cmd.Arg("plan-file", "Plan file from a previous tf-plan --out.").StringVar(&c.planFile)
	c.Cmd.Flag("dir", "Terraform working directory.").Default(".").StringVar(&c.dir)

	return c
}

func (c IacTfApplyCommand) Name() string { return c.Cmd.FullCommand() }

func (c IacTfApplyCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	tf, err := iac.NewTerraform(iac.TerraformConfig{
		Dir:    c.dir,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create terraform wrapper: %w", err)
	}

	if err := tf.Apply(ctx, c.planFile); err != nil {
		return err
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage("Terraform apply complete")
}
