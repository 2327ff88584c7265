// Package iac wraps infrastructure-as-code CLIs (terraform, ansible) on top
// of the shell runner.
package iac

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/shell"
)

// TerraformConfig is the configuration of Terraform.
type TerraformConfig struct {
	// Dir is the working directory where the terraform files live.
	Dir    string
	Runner shell.Runner
	Logger log.Logger
}

func (c *TerraformConfig) defaults() error {
	if c.Dir == "" {
		c.Dir = "."
	}

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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "iac.Terraform"})

	return nil
}

// Terraform runs the terraform CLI against a single working directory.
type Terraform struct {
	dir    string
	runner shell.Runner
	logger log.Logger
}

// NewTerraform returns a new Terraform runner.
func NewTerraform(config TerraformConfig) (*Terraform, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Terraform{
		dir:    config.Dir,
		runner: config.Runner,
		logger: config.Logger,
	}, nil
}

// Init runs `terraform init` with optional backend config values.
func (t *Terraform) Init(ctx context.Context, backendConfig map[string]string) error {
	args := []string{"init", "-input=false"}
	for _, k := range sortedKeys(backendConfig) {
		args = append(args, fmt.Sprintf("-backend-config=%s=%s", k, backendConfig[k]))
	}

	_, err := t.run(ctx, args)
	return err
}

// PlanOptions tweak a `terraform plan` invocation.
type PlanOptions struct {
	VarFile string
	Vars    map[string]string
	// Out writes the plan to a file for a later Apply.
	Out string
}

// Plan runs `terraform plan` and returns its stdout.
func (t *Terraform) Plan(ctx context.Context, opts PlanOptions) (string, error) {
	args := []string{"plan", "-input=false", "-no-color"}
	if opts.VarFile != "" {
		args = append(args, fmt.Sprintf("-var-file=%s", opts.VarFile))
	}
	for _, k := range sortedKeys(opts.Vars) {
		args = append(args, fmt.Sprintf("-var=%s=%s", k, opts.Vars[k]))
	}
	if opts.Out != "" {
		args = append(args, fmt.Sprintf("-out=%s", opts.Out))
	}

	result, err := t.run(ctx, args)
	if err != nil {
		return "", err
	}

	return result.Stdout, nil
}

// Apply runs `terraform apply`. An empty plan file applies the current
// configuration with -auto-approve.
func (t *Terraform) Apply(ctx context.Context, planFile string) error {
	args := []string{"apply", "-input=false", "-no-color", "-auto-approve"}
	if planFile != "" {
		args = append(args, planFile)
	}

	_, err := t.run(ctx, args)
	return err
}

// Output returns the root module outputs parsed from `terraform output -json`.
func (t *Terraform) Output(ctx context.Context) (map[string]any, error) {
	result, err := t.run(ctx, []string{"output", "-json"})
	if err != nil {
		return nil, err
	}

	outputs := map[string]any{}
	if err := json.Unmarshal([]byte(result.Stdout), &outputs); err != nil {
		return nil, fmt.Errorf("could not parse terraform outputs: %w", err)
	}

	return outputs, nil
}

func (t *Terraform) run(ctx context.Context, args []string) (*model.ExecResult, error) {
	argv := append([]string{"terraform"}, args...)
	t.logger.Debugf("Running %v", argv)

	result, err := t.runner.Run(ctx, shell.Request{
		Argv:  argv,
		Dir:   t.dir,
		Check: true,
	})
	if err != nil {
		return nil, fmt.Errorf("terraform %s failed: %w", args[0], err)
	}

	return result, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
