package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/ailint/internal/cache"
)

func (a *app) newCacheCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the verdict cache",
	}
	cmd.PersistentFlags().StringVar(&dir, "cache-dir", "", "Cache directory (default: user cache directory)")

	open := func() (*cache.Cache, error) {
		c, err := cache.New(cache.Options{Enabled: true, Dir: dir})
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		return c, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached verdicts",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open()
			if err != nil {
				return err
			}
			n, err := c.Clear()
			if err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%d entries removed).\n", n)
			return nil
		},
	}, &cobra.Command{
		Use:   "show",
		Short: "Show cache statistics",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open()
			if err != nil {
				return err
			}
			stats, err := c.Stats()
			if err != nil {
				return fmt.Errorf("reading cache stats: %w", err)
			}
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})
	return cmd
}
