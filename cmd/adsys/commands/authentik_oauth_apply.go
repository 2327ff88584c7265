package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikOAuthApplyCommand provisions OAuth2 providers and applications
// from a declarative file.
type AuthentikOAuthApplyCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	file    string
	flow    string
	envFile string
	format  string
}

// NewAuthentikOAuthApplyCommand returns the authentik oauth-apply command.
func NewAuthentikOAuthApplyCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikOAuthApplyCommand {
	c := &AuthentikOAuthApplyCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("oauth-apply", "Create OAuth2 providers and applications from a YAML file.")
	c.Cmd.Arg("file", "YAML file describing the OAuth applications.").Required().StringVar(&c.file)
	c.Cmd.Flag("flow", "Authorization flow slug for new providers.").StringVar(&c.flow)
	c.Cmd.Flag("env-file", "Append the generated client credentials to this env file.").StringVar(&c.envFile)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c AuthentikOAuthApplyCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikOAuthApplyCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	apps, err := authentik.LoadOAuthApps(c.file)
	if err != nil {
		return fmt.Errorf("could not load OAuth apps: %w", err)
	}

	client, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	mgr, err := authentik.NewOAuthManager(authentik.OAuthManagerConfig{
		Client:            client,
		AuthorizationFlow: c.flow,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("could not create OAuth manager: %w", err)
	}

	results := mgr.CreateProviders(ctx, apps)

	if c.envFile != "" {
		if err := authentik.WriteEnvFile(c.envFile, results); err != nil {
			return fmt.Errorf("could not write env file: %w", err)
		}
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintOAuthResults(results); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%d of %d providers failed", failedCount(results), len(results))
		}
	}

	return nil
}

func failedCount(results []authentik.OAuthResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
