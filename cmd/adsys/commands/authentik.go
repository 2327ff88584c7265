package commands

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/log"
)

// AuthentikCommand is the parent command for Authentik subcommands.
type AuthentikCommand struct {
	Cmd *kingpin.CmdClause

	url      string
	token    string
	insecure bool
}

// NewAuthentikCommand returns the authentik parent command.
func NewAuthentikCommand(app *kingpin.Application) *AuthentikCommand {
	c := &AuthentikCommand{}

	c.Cmd = app.Command("authentik", "Manage an Authentik identity provider.")
	c.Cmd.Flag("url", "Authentik base URL.").Envar("ADSYS_AUTHENTIK_URL").Required().StringVar(&c.url)
	c.Cmd.Flag("token", "Authentik API token.").Envar("ADSYS_AUTHENTIK_TOKEN").Required().StringVar(&c.token)
	c.Cmd.Flag("insecure", "Skip TLS certificate verification.").BoolVar(&c.insecure)

	return c
}

// newAuthentikClient creates an Authentik API client from the parent flags.
func newAuthentikClient(authentikCmd *AuthentikCommand, logger log.Logger) (*authentik.Client, error) {
	client, err := authentik.NewClient(authentik.ClientConfig{
		BaseURL:            authentikCmd.url,
		Token:              authentikCmd.token,
		InsecureSkipVerify: authentikCmd.insecure,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create authentik client: %w", err)
	}
	return client, nil
}
