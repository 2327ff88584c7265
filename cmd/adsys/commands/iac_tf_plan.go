package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/iac"
)

// IacTfPlanCommand runs a Terraform plan.
type IacTfPlanCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dir      string
	varFile  string
	varSpecs []string
	out      string
}

// NewIacTfPlanCommand returns the iac tf-plan command.
func NewIacTfPlanCommand(rootCmd *RootCommand, iacCmd *kingpin.CmdClause) *IacTfPlanCommand {
	c := &IacTfPlanCommand{rootCmd: rootCmd}

	c.Cmd = iacCmd.Command("tf-plan", "Show the changes Terraform would apply.")
	c.Cmd.Flag("dir", "Terraform working directory.").Default(".").StringVar(&c.dir)
	c.Cmd.Flag("var-file", "Variable definitions file.").StringVar(&c.varFile)
	c.Cmd.Flag("var", "Variable value (KEY=VALUE). Can be repeated.").StringsVar(&c.varSpecs)
	c.Cmd.Flag("out", "Write the plan to this file for a later apply.").StringVar(&c.out)

	return c
}

func (c IacTfPlanCommand) Name() string { return c.Cmd.FullCommand() }

func (c IacTfPlanCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	vars, err := parseKeyValueSpecs(c.varSpecs)
	if err != nil {
		return fmt.Errorf("invalid --var value: %w", err)
	}

	tf, err := iac.NewTerraform(iac.TerraformConfig{
		Dir:    c.dir,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create terraform wrapper: %w", err)
	}

	output, err := tf.Plan(ctx, iac.PlanOptions{
		VarFile: c.varFile,
		Vars:    vars,
		Out:     c.out,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.rootCmd.Stdout, output)
	return err
}
