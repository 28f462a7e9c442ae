package commands

import (
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qtvstools/qtvs/pkg/qtconfig"
)

// buildConfigView is the printable form of a BuildConfig.
type buildConfigView struct {
	QtDir         string  `json:"qt_dir" yaml:"qt_dir"`
	Path          string  `json:"path" yaml:"path"`
	Static        bool    `json:"static" yaml:"static"`
	SignatureFile *string `json:"signature_file" yaml:"signature_file"`
}

func newBuildConfigView(qtdir string, cfg *qtconfig.BuildConfig) buildConfigView {
	view := buildConfigView{
		QtDir:  qtdir,
		Path:   qtconfig.Path(qtdir),
		Static: cfg.IsStaticBuild(),
	}
	if sig, ok := cfg.SignatureFile(); ok {
		view.SignatureFile = &sig
	}
	return view
}

func (v buildConfigView) writeText(w io.Writer) error {
	fprintf(w, "Qt directory:   %s\n", v.QtDir)
	fprintf(w, "Static build:   %s\n", yesNo(v.Static))
	if v.SignatureFile != nil {
		fprintf(w, "Signature file: %s\n", *v.SignatureFile)
	} else {
		fprintf(w, "Signature file: (none)\n")
	}
	return nil
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the build configuration of a Qt installation",
		Long: `Inspect mkspecs/qconfig.pri of a Qt installation.

Only two facts are read:
  - whether Qt was built static or shared (CONFIG)
  - the Windows CE signing certificate (DEFAULT_SIGNATURE)`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigWatchCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the build configuration",
		Example: `  # Use QTDIR
  qtvs config show

  # Explicit directory, JSON output
  qtvs config show --qtdir C:\Qt\5.15.2\msvc2019_64 -o json

  # Registered version
  qtvs config show --qtdir @5.15-wince`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveQtDir(cmd.Context())
			if err != nil {
				return err
			}

			cfg, err := qtconfig.Load(dir, qtconfig.WithLogger(log.Logger), qtconfig.WithMetrics(metrics))
			if err != nil {
				// Best effort: show whatever was parsed before the fault.
				log.Warn().Err(err).Msg("qconfig.pri could not be read completely")
			}

			view := newBuildConfigView(dir, cfg)
			return printOutput(cmd.OutOrStdout(), view, view.writeText)
		},
	}

	return cmd
}

func newConfigWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the build configuration whenever qconfig.pri changes",
		Example: `  # Watch until interrupted
  qtvs config watch --qtdir /opt/Qt/6.5.3/gcc_64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := resolveQtDir(ctx)
			if err != nil {
				return err
			}

			opts := []qtconfig.Option{qtconfig.WithLogger(log.Logger), qtconfig.WithMetrics(metrics)}
			out := cmd.OutOrStdout()

			show := func(cfg *qtconfig.BuildConfig) {
				view := newBuildConfigView(dir, cfg)
				if err := printOutput(out, view, view.writeText); err != nil {
					log.Error().Err(err).Msg("Failed to print build configuration")
				}
			}

			show(qtconfig.Read(dir, opts...))

			w := qtconfig.NewWatcher(dir, opts...)
			if err := w.Watch(ctx, show); err != nil {
				return configError("%w", err)
			}
			defer w.Close()

			<-ctx.Done()
			return nil
		},
	}

	return cmd
}
