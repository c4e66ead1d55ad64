package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/ailint/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ailint configuration",
	}
	cmd.AddCommand(a.newConfigShowCmd(), a.newConfigResolveCmd())
	return cmd
}

func (a *app) resolver() *config.Resolver {
	return config.NewResolver(config.Options{Lookup: a.lookup, Logger: a.logger})
}

func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [dir]",
		Short: "Show the effective configuration of a directory",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			r := a.resolver()
			cfg, err := r.ConfigForDir(dir)
			if err != nil {
				return err
			}
			source := "built-in default"
			if cfg == nil {
				cfg = r.Default()
			} else {
				source = cfg.Path
			}

			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "# source: %s\n", source)
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func (a *app) newConfigResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <file> <rule>",
		Short: "Show the API parameters a rule resolves to from a file",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := a.resolver().ResolveParameters(args[0], args[1])
			if err != nil {
				return err
			}
			if params == nil {
				return fmt.Errorf("no %s above %s provides an apiConfig", config.FileName, args[0])
			}
			shown := *params
			shown.APIKey = config.MaskKey(shown.APIKey)
			data, err := json.MarshalIndent(shown, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
