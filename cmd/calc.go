package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/dosing"
	"github.com/giygas/anesdose/render"
	"github.com/giygas/anesdose/validation"
	"github.com/spf13/cobra"
)

const exitInvalidInput = 2

func newCalcCmd(root *rootOptions) *cobra.Command {
	var (
		in       validation.ProfileInput
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute doses for one patient profile",
		Example: `  anesdose calc --age 45 --weight 72.5 --height 178 --sex male --asa 2
  anesdose calc --age 4 --weight 16 --height 102 --sex female --category induction --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := validation.ParseProfile(in)
			if err != nil {
				return invalidProfile(cmd.ErrOrStderr(), err)
			}

			store, err := loadCatalog(root.catalogPath)
			if err != nil {
				return err
			}
			ev := dosing.NewEvaluator(store)
			out := cmd.OutOrStdout()

			if category != "" {
				cat, ok := catalog.ParseCategory(category)
				if !ok {
					return &exitError{code: exitInvalidInput, err: fmt.Errorf("unknown category %q", category)}
				}
				res, err := ev.CalculateCategory(cat, profile)
				if err != nil {
					return invalidProfile(cmd.ErrOrStderr(), err)
				}
				view := render.Cards(res)
				if asJSON {
					return writeJSON(out, view)
				}
				return render.WriteCategoryText(out, view)
			}

			calc, err := ev.Calculate(profile)
			if err != nil {
				return invalidProfile(cmd.ErrOrStderr(), err)
			}
			if asJSON {
				return writeJSON(out, render.Calculation(calc))
			}
			return render.WriteText(out, calc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Age, "age", "", "age in whole years")
	f.StringVar(&in.Weight, "weight", "", "weight in kg")
	f.StringVar(&in.Height, "height", "", "height in cm")
	f.StringVar(&in.Sex, "sex", "", "male or female")
	f.StringVar(&in.ASA, "asa", "", "ASA physical status 1-5 (default 1)")
	f.StringVarP(&category, "category", "c", "", "only compute one category")
	f.BoolVar(&asJSON, "json", false, "print JSON instead of text")

	return cmd
}

// invalidProfile lists every violation on w and maps the error to exit code 2.
func invalidProfile(w io.Writer, err error) error {
	var verr *dosing.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	fmt.Fprintln(w, "Invalid patient profile:")
	for _, v := range verr.Violations {
		fmt.Fprintf(w, "  %s: %s\n", v.Field, v.Message)
	}
	return &exitError{code: exitInvalidInput, err: err}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
