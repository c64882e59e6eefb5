package cmd

import (
	"fmt"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/render"
	"github.com/spf13/cobra"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog [category...]",
		Short: "List the drugs of the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := make([]catalog.Category, 0, len(args))
			for _, arg := range args {
				c, ok := catalog.ParseCategory(arg)
				if !ok {
					return &exitError{code: exitInvalidInput, err: fmt.Errorf("unknown category %q", arg)}
				}
				categories = append(categories, c)
			}

			store, err := loadCatalog(root.catalogPath)
			if err != nil {
				return err
			}

			view := render.Catalog(store, categories...)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return render.WriteCatalogText(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}
