package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikUserCreateCommand creates an Authentik user.
type AuthentikUserCreateCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	username string
	name     string
	email    string
	groups   []string
	password string
}

// NewAuthentikUserCreateCommand returns the authentik create-user command.
func NewAuthentikUserCreateCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikUserCreateCommand {
	c := &AuthentikUserCreateCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("create-user", "Create a user.")
	c.Cmd.Arg("username", "Username of the new user.").Required().StringVar(&c.username)
	c.Cmd.Flag("name", "Display name. Empty uses the username.").StringVar(&c.name)
	c.Cmd.Flag("email", "Email address.").StringVar(&c.email)
	c.Cmd.Flag("group", "Group UUID to add the user to. Can be repeated.").StringsVar(&c.groups)
	c.Cmd.Flag("password", "Initial password.").StringVar(&c.password)

	return c
}

func (c AuthentikUserCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikUserCreateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	name := c.name
	if name == "" {
		name = c.username
	}

	user, err := client.CreateUser(ctx, authentik.User{
		Username: c.username,
		Name:     name,
		Email:    c.email,
		IsActive: true,
		Groups:   c.groups,
	})
	if err != nil {
		return fmt.Errorf("could not create user: %w", err)
	}

	if c.password != "" {
		if err := client.SetUserPassword(ctx, user.PK, c.password); err != nil {
			return fmt.Errorf("could not set user password: %w", err)
		}
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("User %s created (pk %d)", user.Username, user.PK))
}
