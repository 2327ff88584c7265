package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/iac"
)

// IacAnsibleCommand runs an Ansible playbook.
type IacAnsibleCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	playbook  string
	inventory string
	varSpecs  []string
	tags      []string
	check     bool
}

// NewIacAnsibleCommand returns the iac ansible-run command.
func NewIacAnsibleCommand(rootCmd *RootCommand, iacCmd *kingpin.CmdClause) *IacAnsibleCommand {
	c := &IacAnsibleCommand{rootCmd: rootCmd}

	c.Cmd = iacCmd.Command("ansible-run", "Run an Ansible playbook.")
	c.Cmd.Arg("playbook", "Playbook file to run.").Required().StringVar(&c.playbook)
	c.Cmd.Flag("inventory", "Inventory file or host list.").Short('i').StringVar(&c.inventory)
	c.Cmd.Flag("extra-var", "Extra variable (KEY=VALUE). Can be repeated.").StringsVar(&c.varSpecs)
	c.Cmd.Flag("tags", "Only run plays and tasks tagged with these values. Can be repeated.").StringsVar(&c.tags)
	c.Cmd.Flag("check", "Dry-run mode, do not make changes.").BoolVar(&c.check)

	return c
}

func (c IacAnsibleCommand) Name() string { return c.Cmd.FullCommand() }

func (c IacAnsibleCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	vars, err := parseKeyValueSpecs(c.varSpecs)
	if err != nil {
		return fmt.Errorf("invalid --extra-var value: %w", err)
	}
	extraVars := make(map[string]any, len(vars))
	for k, v := range vars {
		extraVars[k] = v
	}

	ansible, err := iac.NewAnsible(iac.AnsibleConfig{
		Inventory: c.inventory,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create ansible wrapper: %w", err)
	}

	output, err := ansible.RunPlaybook(ctx, c.playbook, iac.PlaybookOptions{
		ExtraVars: extraVars,
		Tags:      c.tags,
		Check:     c.check,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.rootCmd.Stdout, output)
	return err
}
