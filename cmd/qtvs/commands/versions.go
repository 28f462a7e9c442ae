package commands

import (
	"errors"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qtvstools/qtvs/pkg/qtconfig"
	"github.com/qtvstools/qtvs/pkg/stores"
)

func newVersionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage registered Qt versions",
		Long: `Register Qt installations under short names.

Each registered version keeps a snapshot of its build configuration.
A registered version can be used anywhere --qtdir is accepted as @name,
and the default version is used when neither --qtdir nor QTDIR is set.`,
	}

	cmd.AddCommand(newVersionsAddCommand())
	cmd.AddCommand(newVersionsListCommand())
	cmd.AddCommand(newVersionsRemoveCommand())
	cmd.AddCommand(newVersionsDefaultCommand())
	cmd.AddCommand(newVersionsRefreshCommand())

	return cmd
}

// storeError maps registry errors to exit codes.
func storeError(err error) error {
	if errors.Is(err, stores.ErrNotFound) {
		return configError("%w", err)
	}
	return dataError("%w", err)
}

func newVersionsAddCommand() *cobra.Command {
	var makeDefault bool

	cmd := &cobra.Command{
		Use:   "add <name> <qtdir>",
		Short: "Register a Qt installation",
		Example: `  qtvs versions add 5.15-msvc C:\Qt\5.15.2\msvc2019_64 --default`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			dir, err := filepath.Abs(args[1])
			if err != nil {
				return configError("invalid Qt directory: %w", err)
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			v := &stores.QtVersion{Name: name, QtDir: dir, IsDefault: makeDefault}
			v.ApplyBuildConfig(qtconfig.Read(dir, qtconfig.WithLogger(log.Logger), qtconfig.WithMetrics(metrics)))

			// Registration and the default switch commit together.
			if err := store.AddVersion(ctx, v); err != nil {
				return dataError("%w", err)
			}

			log.Info().Str("name", name).Str("qtdir", dir).Bool("static", v.IsStatic).Msg("Qt version registered")

			return printOutput(cmd.OutOrStdout(), v, func(w io.Writer) error {
				fprintf(w, "Registered %s -> %s\n", v.Name, v.QtDir)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default version")

	return cmd
}

func newVersionsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered Qt versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			versions, err := store.ListVersions(ctx)
			if err != nil {
				return dataError("%w", err)
			}

			return printOutput(cmd.OutOrStdout(), versions, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fprintf(tw, "NAME\tSTATIC\tSIGNATURE\tQTDIR\n")
				for _, v := range versions {
					name := v.Name
					if v.IsDefault {
						name += " *"
					}
					sig := "-"
					if v.SignatureFile != nil {
						sig = *v.SignatureFile
					}
					fprintf(tw, "%s\t%s\t%s\t%s\n", name, yesNo(v.IsStatic), sig, v.QtDir)
				}
				return tw.Flush()
			})
		},
	}

	return cmd
}

func newVersionsRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Unregister a Qt version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteVersion(ctx, args[0]); err != nil {
				return storeError(err)
			}

			fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newVersionsDefaultCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default [name]",
		Short: "Show or set the default Qt version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				if err := store.SetDefault(ctx, args[0]); err != nil {
					return storeError(err)
				}
			}

			v, err := store.GetDefault(ctx)
			if err != nil {
				return storeError(err)
			}

			return printOutput(cmd.OutOrStdout(), v, func(w io.Writer) error {
				fprintf(w, "%s -> %s\n", v.Name, v.QtDir)
				return nil
			})
		},
	}

	return cmd
}

func newVersionsRefreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh [name...]",
		Short: "Re-read qconfig.pri for registered versions",
		Long: `Re-read mkspecs/qconfig.pri and update the stored snapshot.

Without arguments every registered version is refreshed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var versions []*stores.QtVersion
			if len(args) == 0 {
				versions, err = store.ListVersions(ctx)
				if err != nil {
					return dataError("%w", err)
				}
			} else {
				for _, name := range args {
					v, err := store.GetVersion(ctx, name)
					if err != nil {
						return storeError(err)
					}
					versions = append(versions, v)
				}
			}

			out := cmd.OutOrStdout()
			for _, v := range versions {
				cfg := qtconfig.Read(v.QtDir, qtconfig.WithLogger(log.Logger), qtconfig.WithMetrics(metrics))
				if err := store.UpdateBuildConfig(ctx, v.Name, cfg); err != nil {
					return storeError(err)
				}
				fprintf(out, "Refreshed %s (static: %s)\n", v.Name, yesNo(cfg.IsStaticBuild()))
			}

			return nil
		},
	}

	return cmd
}
