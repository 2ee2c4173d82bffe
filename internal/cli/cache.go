package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xmlvalid/validator/config"
	"github.com/xmlvalid/validator/store"
)

func newCacheCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent schema cache",
	}
	cmd.AddCommand(newCacheClearCmd(cfgFile), newCacheStatsCmd(cfgFile))
	return cmd
}

func openStore(cmd *cobra.Command, cfgFile *string) (*store.Store, error) {
	cfg, err := config.Load(*cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return store.New(cfg.Options(), nil, nil)
}

func newCacheClearCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd, cfgFile)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema cache cleared")
			return nil
		},
	}
}

func newCacheStatsCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show schema cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd, cfgFile)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "disk entries: %d\ndisk size:    %d bytes\n",
				stats.Disk.Entries, stats.Disk.TotalBytes)
			return nil
		},
	}
}
