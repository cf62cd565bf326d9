package main

import (
	"fmt"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newCacheCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache maintenance",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "flush",
			Short: "Remove every cached entry in both tiers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := newApp(cmd, g)
				if err != nil {
					return err
				}
				defer app.Shutdown()

				store, err := do.Invoke[*cache.TieredStore](app.Injector())
				if err != nil {
					return err
				}
				if err := store.ClearAll(cmd.Context()); err != nil {
					return fmt.Errorf("flush: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cache: flushed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective cache configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd, g)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg.Cache)
			},
		},
	)
	return cmd
}
