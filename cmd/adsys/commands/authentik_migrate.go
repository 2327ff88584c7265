package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/keycloak"
	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikMigrateCommand migrates users and groups from a Keycloak realm
// into Authentik.
type AuthentikMigrateCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	kcURL           string
	kcRealm         string
	kcUsername      string
	kcPassword      string
	kcInsecure      bool
	defaultPassword string
	dryRun          bool
	reportFile      string
	format          string
}

// NewAuthentikMigrateCommand returns the authentik migrate-keycloak command.
func NewAuthentikMigrateCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikMigrateCommand {
	c := &AuthentikMigrateCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("migrate-keycloak", "Migrate users and groups from a Keycloak realm.")
	c.Cmd.Flag("kc-url", "Keycloak base URL.").Envar("ADSYS_KEYCLOAK_URL").Required().StringVar(&c.kcURL)
	c.Cmd.Flag("kc-realm", "Keycloak realm to migrate.").Required().StringVar(&c.kcRealm)
	c.Cmd.Flag("kc-username", "Keycloak admin username.").Envar("ADSYS_KEYCLOAK_USERNAME").Required().StringVar(&c.kcUsername)
	c.Cmd.Flag("kc-password", "Keycloak admin password.").Envar("ADSYS_KEYCLOAK_PASSWORD").Required().StringVar(&c.kcPassword)
	c.Cmd.Flag("kc-insecure", "Skip TLS certificate verification for Keycloak.").BoolVar(&c.kcInsecure)
	c.Cmd.Flag("default-password", "Password assigned to every created user.").StringVar(&c.defaultPassword)
	c.Cmd.Flag("dry-run", "Log what would happen without writing anything.").BoolVar(&c.dryRun)
	c.Cmd.Flag("report", "Write the migration report JSON to this file.").StringVar(&c.reportFile)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c AuthentikMigrateCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikMigrateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	source, err := keycloak.NewClient(keycloak.ClientConfig{
		BaseURL:            c.kcURL,
		Realm:              c.kcRealm,
		Username:           c.kcUsername,
		Password:           c.kcPassword,
		InsecureSkipVerify: c.kcInsecure,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("could not create keycloak client: %w", err)
	}

	target, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	migrator, err := keycloak.NewMigrator(keycloak.MigratorConfig{
		Source:          source,
		Target:          target,
		DefaultPassword: c.defaultPassword,
		DryRun:          c.dryRun,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create migrator: %w", err)
	}

	report, err := migrator.MigrateAll(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if c.reportFile != "" {
		if err := report.Save(c.reportFile); err != nil {
			return fmt.Errorf("could not save report: %w", err)
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

	if err := p.PrintMigrationReport(*report); err != nil {
		return fmt.Errorf("could not print report: %w", err)
	}

	return nil
}
