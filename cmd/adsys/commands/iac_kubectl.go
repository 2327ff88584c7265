package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/kubectl"
)

// IacKubectlCommand passes arguments through to kubectl against a configured
// cluster context.
type IacKubectlCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	args        []string
	kubeconfig  string
	kubeContext string
	namespace   string
}

// NewIacKubectlCommand returns the iac kubectl command.
func NewIacKubectlCommand(rootCmd *RootCommand, iacCmd *kingpin.CmdClause) *IacKubectlCommand {
	c := &IacKubectlCommand{rootCmd: rootCmd}

	c.Cmd = iacCmd.Command("kubectl", "Run a kubectl command (use -- before arguments).")
	c.Cmd.Arg("args", "kubectl arguments.").Required().StringsVar(&c.args)
	c.Cmd.Flag("kubeconfig", "Kubeconfig file path.").StringVar(&c.kubeconfig)
	c.Cmd.Flag("context", "Kubeconfig context to use.").StringVar(&c.kubeContext)
	c.Cmd.Flag("namespace", "Default namespace for namespaced operations.").Short('n').StringVar(&c.namespace)

	return c
}

func (c IacKubectlCommand) Name() string { return c.Cmd.FullCommand() }

func (c IacKubectlCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	runner, err := kubectl.NewRunner(kubectl.RunnerConfig{
		Kubeconfig: c.kubeconfig,
		Context:    c.kubeContext,
		Namespace:  c.namespace,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create kubectl runner: %w", err)
	}

	output, err := runner.RunCommand(ctx, c.args...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.rootCmd.Stdout, output)
	return err
}
