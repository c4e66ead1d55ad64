package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/ailint/internal/config"
)

const starterConfig = `{
  "baseConfig": "default",
  "includeExtensions": [],
  "ignore": [],
  "apiConfig": {
    "baseUrl": "${AILINT_BASE_URL:-https://api.openai.com/v1}",
    "modelName": "${AILINT_MODEL:-gpt-4o-mini}",
    "apiKey": "${AILINT_API_KEY}",
    "temperature": "0"
  },
  "apiConfigRuleOverrides": {}
}
`

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a starter " + config.FileName,
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName)

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
				return nil
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("checking %s: %w", path, err)
			}

			if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
