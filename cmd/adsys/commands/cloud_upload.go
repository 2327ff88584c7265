package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// CloudUploadCommand uploads a file to an object storage bucket.
type CloudUploadCommand struct {
	Cmd      *kingpin.CmdClause
	rootCmd  *RootCommand
	cloudCmd *CloudCommand

	bucket     string
	filePath   string
	objectName string
}

// NewCloudUploadCommand returns the cloud upload command.
func NewCloudUploadCommand(rootCmd *RootCommand, cloudCmd *CloudCommand) *CloudUploadCommand {
	c := &CloudUploadCommand{rootCmd: rootCmd, cloudCmd: cloudCmd}

	c.Cmd = cloudCmd.Cmd.Command("upload", "Upload a local file to an object storage bucket.")
	c.Cmd.Arg("bucket", "Bucket name.").Required().StringVar(&c.bucket)
	c.Cmd.Arg("file", "Local file to upload.").Required().StringVar(&c.filePath)
	c.Cmd.Flag("object", "Object name. Empty uses the file's base name.").StringVar(&c.objectName)

	return c
}

func (c CloudUploadCommand) Name() string { return c.Cmd.FullCommand() }

func (c CloudUploadCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	provider, err := newCloudProvider(ctx, c.cloudCmd, logger)
	if err != nil {
		return err
	}

	if err := provider.UploadFile(ctx, c.bucket, c.filePath, c.objectName); err != nil {
		return fmt.Errorf("could not upload file: %w", err)
	}

	objectName := c.objectName
	if objectName == "" {
		objectName = filepath.Base(c.filePath)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Uploaded %s to %s/%s", c.filePath, c.bucket, objectName))
}
