package main

import (
	"fmt"
	"os"

	"github.com/bloops-games/launched/internal/bot/resource"
	"github.com/bloops-games/launched/internal/config"
	"github.com/bloops-games/launched/internal/database"
	"github.com/bloops-games/launched/internal/logging"
	"github.com/bloops-games/launched/internal/shutdown"
	"github.com/bloops-games/launched/internal/snapshot"
	"github.com/spf13/cobra"
)

var version = "dev"

type storeFlags struct {
	driver   string
	path     string
	boltPath string
	compress bool
	readOnly bool
}

func (f *storeFlags) register(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringVar(&f.driver, prefix+"driver", snapshot.DriverFile, "Snapshot driver, file or bolt")
	cmd.Flags().StringVar(&f.path, prefix+"path", "user_stats.json", "Path of the JSON document")
	cmd.Flags().StringVar(&f.boltPath, prefix+"bolt-path", "launched.db", "Path of the bolt database")
	cmd.Flags().BoolVar(&f.compress, prefix+"compress", false, "Write zstd compressed documents")
}

func (f *storeFlags) config() *snapshot.Config {
	return &snapshot.Config{
		Driver:   f.driver,
		Path:     f.path,
		Compress: f.compress,
		Bolt:     database.Config{FilePath: f.boltPath, OpenTimeout: openTimeout, ReadOnly: f.readOnly},
	}
}

func main() {
	ctx, done := shutdown.New()
	defer done()

	ctx = logging.WithLogger(ctx, logging.NewLogger(false))
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		done()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "launched-cli",
		Short:         "Inspect and migrate launch statistics snapshots",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newInspectCmd(), newMigrateCmd(), newEnvCmd())
	return root
}

func newInspectCmd() *cobra.Command {
	var (
		flags   storeFlags
		seeding string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the users and games of a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := snapshot.Open(ctx, flags.config())
			if err != nil {
				return err
			}
			defer store.Close()

			return inspect(ctx, cmd.OutOrStdout(), store, seeding)
		},
	}

	flags.register(cmd, "")
	flags.readOnly = true
	cmd.Flags().StringVar(&seeding, "least-seeding", "trigger", "Least-launched seeding, trigger or scan")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var from, to storeFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy a snapshot between stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := snapshot.Open(ctx, from.config())
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer src.Close()

			dst, err := snapshot.Open(ctx, to.config())
			if err != nil {
				return fmt.Errorf("open target: %w", err)
			}
			defer dst.Close()

			n, err := migrate(ctx, src, dst)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrated %d users\n", n)
			return nil
		},
	}

	from.register(cmd, "from-")
	from.readOnly = true
	to.register(cmd, "to-")
	return cmd
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables of " + resource.ProjectName,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return config.Usage()
		},
	}
}

