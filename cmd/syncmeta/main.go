// Syncmeta writes the metadata document of an asynchronous implementation
// package to stdout, ready to be piped into syncgen.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rebrowser/syncgen/internal/cli"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/extract"
	"github.com/rebrowser/syncgen/pkg/logger"
)

type options struct {
	operators map[string]string
	pkg       string
	dir       string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "syncmeta <import-path>",
		Short: "Extract façade metadata from an implementation package",
		Long: `Extract façade metadata from an implementation package.

Every exported struct whose name carries the implementation suffix becomes a
class. Methods returning runtime.Coroutine are asynchronous, methods marked
//syncgen:property are properties and exported fields are inherited
properties.

Examples:
  syncmeta ./internal/sample/impl > metadata.json
  syncmeta --operator Nth=__getitem__ . | syncgen > ../facade/facade.go`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cli.Load(cli.NewViper()), opts, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringToStringVar(&opts.operators, "operator", nil, "map a method to an internal name, e.g. Nth=__getitem__")
	cmd.Flags().StringVar(&opts.pkg, "package", "facade", "package name of the generated façade")
	cmd.Flags().StringVarP(&opts.dir, "dir", "C", "", "directory to resolve the import path from")
	return cmd
}

func run(settings cli.Settings, opts *options, importPath string, out io.Writer) error {
	if err := settings.InitLogger(); err != nil {
		return err
	}
	defer logger.Cleanup()

	policy, err := settings.LoadPolicy()
	if err != nil {
		return err
	}
	file, err := extract.Package(importPath, extract.Options{
		Package:   opts.pkg,
		Dir:       opts.dir,
		Operators: opts.operators,
		Policy:    policy,
		Logger:    logger.Named("syncmeta"),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(file), "writing metadata")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cli.Report(os.Stderr, "syncmeta", err)
		os.Exit(1)
	}
}
