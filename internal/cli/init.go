package cli

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sheetpack/pkg/config"
	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/export"
)

// initCommand creates the init command, which writes a starter project file.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a " + config.FileName + " project file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := writeProjectFile(dir, force)
			if err != nil {
				return err
			}
			printSuccess("Created %s", config.FileName)
			printFile(path)
			printNewline()
			printNextStep("Build", appName+" build")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

// starterConfig is the project written by init.
func starterConfig() *config.Config {
	cfg := config.Default()
	cfg.Inputs = []string{"sprites"}
	cfg.Image = filepath.Join("build", "atlas.png")
	cfg.Map = filepath.Join("build", "atlas.txt")
	return cfg
}

// writeProjectFile writes the starter config into dir and returns its path.
func writeProjectFile(dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", errors.New(errors.ErrCodeConflict, "%s already exists (use --force to overwrite)", path)
	}

	var buf bytes.Buffer
	if err := config.Write(&buf, starterConfig()); err != nil {
		return "", err
	}
	if err := export.WriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
