package iac

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/shell"
)

// AnsibleConfig is the configuration of Ansible.
type AnsibleConfig struct {
	// Inventory is the inventory file or host list passed with -i.
	Inventory string
	Runner    shell.Runner
	Logger    log.Logger
}

func (c *AnsibleConfig) defaults() error {
	if c.Runner == nil {
		runner, err := shell.NewExecutor(shell.ExecutorConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create shell executor: %w", err)
		}
		c.Runner = runner
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "iac.Ansible"})

	return nil
}

// Ansible runs ansible-playbook.
type Ansible struct {
	inventory string
	runner    shell.Runner
	logger    log.Logger
}

// NewAnsible returns a new Ansible runner.
func NewAnsible(config AnsibleConfig) (*Ansible, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Ansible{
		inventory: config.Inventory,
		runner:    config.Runner,
		logger:    config.Logger,
	}, nil
}

// PlaybookOptions tweak a playbook run.
type PlaybookOptions struct {
	// ExtraVars are passed as a single JSON --extra-vars argument so
	// complex values survive shell quoting.
	ExtraVars map[string]any
	Tags      []string
	// Check enables ansible's dry-run mode.
	Check bool
}

// RunPlaybook runs a playbook and returns its output.
func (a *Ansible) RunPlaybook(ctx context.Context, playbookPath string, opts PlaybookOptions) (string, error) {
	argv := []string{"ansible-playbook", playbookPath}
	if a.inventory != "" {
		argv = append(argv, "-i", a.inventory)
	}

	if len(opts.ExtraVars) > 0 {
		vars, err := json.Marshal(opts.ExtraVars)
		if err != nil {
			return "", fmt.Errorf("could not marshal extra vars: %w", err)
		}
		argv = append(argv, "--extra-vars", string(vars))
	}

	if len(opts.Tags) > 0 {
		argv = append(argv, "--tags", strings.Join(opts.Tags, ","))
	}

	if opts.Check {
		argv = append(argv, "--check")
	}

	a.logger.Infof("Running playbook %s", playbookPath)

	result, err := a.runner.Run(ctx, shell.Request{
		Argv:  argv,
		Env:   map[string]string{"ANSIBLE_FORCE_COLOR": "1"},
		Check: true,
	})
	if err != nil {
		return "", fmt.Errorf("playbook %s failed: %w", playbookPath, err)
	}

	a.logger.Infof("Playbook %s finished", playbookPath)

	return result.Stdout, nil
}
