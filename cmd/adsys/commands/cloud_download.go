package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// CloudDownloadCommand downloads an object from an object storage bucket.
type CloudDownloadCommand struct {
	Cmd      *kingpin.CmdClause
	rootCmd  *RootCommand
	cloudCmd *CloudCommand

	bucket     string
	objectName string
	filePath   string
}

// NewCloudDownloadCommand returns the cloud download command.
func NewCloudDownloadCommand(rootCmd *RootCommand, cloudCmd *CloudCommand) *CloudDownloadCommand {
	c := &CloudDownloadCommand{rootCmd: rootCmd, cloudCmd: cloudCmd}

	c.Cmd = cloudCmd.Cmd.Command("download", "Download an object from a bucket into a local file.")
	c.Cmd.Arg("bucket", "Bucket name.").Required().StringVar(&c.bucket)
	c.Cmd.Arg("object", "Object name to download.").Required().StringVar(&c.objectName)
	c.Cmd.Arg("file", "Local file to write.").Required().StringVar(&c.filePath)

	return c
}

func (c CloudDownloadCommand) Name() string { return c.Cmd.FullCommand() }

func (c CloudDownloadCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	provider, err := newCloudProvider(ctx, c.cloudCmd, logger)
	if err != nil {
		return err
	}

	if err := provider.DownloadFile(ctx, c.bucket, c.objectName, c.filePath); err != nil {
		return fmt.Errorf("could not download object: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Downloaded %s/%s to %s", c.bucket, c.objectName, c.filePath))
}
