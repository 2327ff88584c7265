package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/iac"
)

// IacTfOutputCommand prints Terraform output values as JSON.
type IacTfOutputCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dir string
}

// NewIacTfOutputCommand returns the iac tf-output command.
func NewIacTfOutputCommand(rootCmd *RootCommand, iacCmd *kingpin.CmdClause) *IacTfOutputCommand {
	c := &IacTfOutputCommand{rootCmd: rootCmd}

	c.Cmd = iacCmd.Command("tf-output", "Print Terraform output values as JSON.")
	c.Cmd.Flag("dir", "Terraform working directory.").Default(".").StringVar(&c.dir)

	return c
}

func (c IacTfOutputCommand) Name() string { return c.Cmd.FullCommand() }

func (c IacTfOutputCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	tf, err := iac.NewTerraform(iac.TerraformConfig{
		Dir:    c.dir,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create terraform wrapper: %w", err)
	}

	outputs, err := tf.Output(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.rootCmd.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outputs)
}
