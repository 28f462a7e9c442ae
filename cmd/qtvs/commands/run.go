package commands

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qtvstools/qtvs/pkg/qtprocess"
)

// runView is the printable form of a tool run.
type runView struct {
	Program  string   `json:"program" yaml:"program"`
	ExitCode int      `json:"exit_code" yaml:"exit_code"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Hint     *string  `json:"hint,omitempty" yaml:"hint,omitempty"`
	Stdout   string   `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   []string `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Duration string   `json:"duration" yaml:"duration"`
}

func newRunCommand() *cobra.Command {
	var (
		codesFile string
		workDir   string
	)

	cmd := &cobra.Command{
		Use:   "run <tool> [args...]",
		Short: "Run a Qt tool and explain its exit code",
		Long: `Run a tool from the bin directory of a Qt installation.

Standard error is streamed while the tool runs. A non-zero exit code is
looked up in the error code table given with --codes; unknown codes are
reported as an unspecified error. QTDIR is set for the tool.

Error code tables are YAML:

  codes:
    - code: 1
      message: "lupdate could not parse the project file."
      resolution: "Check the .pro file for syntax errors."`,
		Example: `  # Update translations
  qtvs run lupdate app.pro -ts app_de.ts

  # With an error code table
  qtvs run --codes lrelease-codes.yaml lrelease app_de.ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := resolveQtDir(ctx)
			if err != nil {
				return err
			}

			proc := qtprocess.New(
				qtprocess.WithLogger(log.Logger),
				qtprocess.WithMetrics(metrics),
			)

			if codesFile != "" {
				table, err := qtprocess.LoadErrorCodes(codesFile)
				if err != nil {
					return configError("%w", err)
				}
				proc.SetErrorCodes(table)
				log.Debug().Int("codes", table.Len()).Str("file", codesFile).Msg("Loaded error codes")
			}

			program := args[0]
			if !filepath.IsAbs(program) {
				program = qtprocess.ToolPath(dir, program)
			}

			result, runErr := proc.Run(ctx, qtprocess.Request{
				Program: program,
				Args:    args[1:],
				WorkDir: workDir,
				Env:     map[string]string{"QTDIR": dir},
			})

			var toolErr *qtprocess.ToolError
			switch {
			case runErr == nil:
			case qtprocess.IsExitFailure(runErr):
				errors.As(runErr, &toolErr)
			case qtprocess.IsStartFailure(runErr):
				// Usually a missing tool under <qtdir>/bin.
				return configError("%w", runErr)
			default:
				return runErr
			}

			view := runView{
				Program:  program,
				ExitCode: result.ExitCode,
				Stdout:   result.Stdout,
				Stderr:   result.Stderr,
				Duration: result.Duration.String(),
			}
			if toolErr != nil {
				view.Message = toolErr.Message
				if toolErr.Hint != "" {
					view.Hint = &toolErr.Hint
				}
			}

			if err := printOutput(cmd.OutOrStdout(), view, func(w io.Writer) error {
				if result.Stdout != "" {
					fprintf(w, "%s", result.Stdout)
					if !strings.HasSuffix(result.Stdout, "\n") {
						fprintf(w, "\n")
					}
				}
				if toolErr != nil {
					fprintf(cmd.ErrOrStderr(), "%s\n", toolErr.Display())
				}
				return nil
			}); err != nil {
				return err
			}

			if toolErr != nil {
				return &exitError{code: toolExitCode(toolErr.ExitCode), reported: true, err: toolErr}
			}
			return nil
		},
	}

	// Everything after the tool name belongs to the tool.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&codesFile, "codes", "", "YAML error code table for the tool")
	cmd.Flags().StringVar(&workDir, "workdir", "", "working directory for the tool")

	return cmd
}

// toolExitCode keeps a tool's exit code usable as our own.
func toolExitCode(code int) int {
	if code <= 0 || code > 255 {
		return ExitError
	}
	return code
}
