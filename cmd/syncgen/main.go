// Syncgen turns an implementation metadata document into blocking façade
// source.
//
//	syncmeta ./impl | SYNCGEN_DOCS=docs.yaml syncgen > facade/facade.go
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rebrowser/syncgen/internal/cli"
	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/codegen"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "syncgen < metadata.json > facade.go",
		Short: "Generate blocking façades from implementation metadata",
		Long: `Generate blocking façades from implementation metadata.

The metadata document is read from stdin and the generated Go source is
written to stdout. Warnings and diagnostics go to stderr; on failure nothing
is written to stdout.

Environment:
  SYNCGEN_CONFIG      policy file (TOML) overlaid on the built-in policy
  SYNCGEN_DOCS        documentation file (YAML)
  SYNCGEN_LOG_FORMAT  console or json
  SYNCGEN_LOG_LEVEL   debug, info, warn or error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cli.Load(cli.NewViper()), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func run(settings cli.Settings, in io.Reader, out io.Writer) error {
	if err := settings.InitLogger(); err != nil {
		return err
	}
	defer logger.Cleanup()
	log := logger.Named("syncgen")

	input, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	if len(input) == 0 {
		return errors.WithHint(errors.New("no input provided"), "usage: syncgen < metadata.json")
	}

	file, err := ast.ParseBytes(input)
	if err != nil {
		return err
	}
	policy, err := settings.LoadPolicy()
	if err != nil {
		return err
	}
	provider, err := settings.LoadDocs()
	if err != nil {
		return err
	}

	result, err := codegen.Generate(file, codegen.Options{Policy: policy, Docs: provider, Logger: log})
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		log.Warn(w)
	}
	if len(result.Skipped) > 0 {
		log.Infof("generated %d classes, %d members skipped", result.Classes, len(result.Skipped))
	} else {
		log.Debugw("generated", logger.FieldCount, result.Classes)
	}

	_, err = io.WriteString(out, result.Code)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cli.Report(os.Stderr, "syncgen", err)
		os.Exit(1)
	}
}
