// Package cmd holds the anesdose command line: the HTTP service plus offline
// calculation and catalog listing.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/config"
	"github.com/giygas/anesdose/logging"
	"github.com/giygas/anesdose/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version, build string

// exitError ends the process with a specific code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type rootOptions struct {
	envFile     string
	catalogPath string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "anesdose",
		Short: "Weight based anesthesia dose reference",
		Long: `anesdose computes reference dose ranges for common anesthesia drugs
from a patient profile. It runs as an HTTP service or as a one-off CLI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			if opts.catalogPath == "" {
				opts.catalogPath = os.Getenv("CATALOG_PATH")
			}
			// serve replaces this once the configuration is known
			return logging.InitLogger(logging.Options{
				Env:     config.EnvProduction,
				Verbose: opts.verbose,
				Console: cmd.ErrOrStderr(),
			})
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "load environment variables from `file` if it exists")
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "read the drug catalog from `file` instead of the built-in one (default $CATALOG_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newCalcCmd(opts),
		newCatalogCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line. Called once from main.
func Execute(versionArg, buildArg string) {
	version = versionArg
	build = buildArg

	os.Exit(run(newRootCmd(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	_ = logging.Close()
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, "Error:", err)
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return 1
}

// loadCatalog reads the catalog at path, or the built-in one, and rejects it
// when it fails validation.
func loadCatalog(path string) (*catalog.Catalog, error) {
	var (
		c   *catalog.Catalog
		err error
	)
	if path == "" {
		c, err = catalog.Default()
	} else {
		c, err = catalog.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	validator := validation.NewCatalogValidator()
	if err := validator.ValidateCatalog(c); err != nil {
		return nil, fmt.Errorf("catalog rejected: %w", err)
	}
	validator.ReportCatalogQuality(c)

	logging.Debug("Catalog loaded", "version", c.Version(), "drugs", c.Len(), "path", path)
	return c, nil
}
