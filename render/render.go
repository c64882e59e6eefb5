// Package render turns evaluated categories into the card layout shown to
// clinicians, either as JSON views or as plain terminal text.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/dosing"
)

// EmptyCategoryMessage is shown in place of cards for a category without drugs.
const EmptyCategoryMessage = "No drugs available in this category."

const macSuffix = " (age-adjusted)"

// DoseBlock is one labelled value on a card.
type DoseBlock struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is one drug as displayed.
type Card struct {
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Doses       []DoseBlock `json:"doses"`
	Preparation string      `json:"preparation,omitempty"`
	Skipped     []string    `json:"skipped,omitempty"`
}

// CategoryView is one category tab.
type CategoryView struct {
	Category   catalog.Category `json:"category"`
	Title      string           `json:"title"`
	Cards      []Card           `json:"cards"`
	References []string         `json:"references"`
	Message    string           `json:"message,omitempty"`
}

// CalculationView is the response body for a full calculation.
type CalculationView struct {
	ID         string         `json:"id"`
	Profile    dosing.Profile `json:"profile"`
	BMI        float64        `json:"bmi"`
	Categories []CategoryView `json:"categories"`
}

// Cards builds the view of one category.
func Cards(res dosing.CategoryResult) CategoryView {
	view := CategoryView{
		Category:   res.Category,
		Title:      res.Category.Title(),
		Cards:      make([]Card, 0, len(res.Results)),
		References: append([]string{}, res.References...),
	}
	if res.Empty() {
		view.Message = EmptyCategoryMessage
		return view
	}

	for _, r := range res.Results {
		view.Cards = append(view.Cards, card(r))
	}
	return view
}

func card(r dosing.DrugResult) Card {
	c := Card{
		Name:        r.Name,
		Category:    r.Category,
		Doses:       make([]DoseBlock, 0, len(r.Doses)),
		Preparation: r.Preparation,
	}
	for _, d := range r.Doses {
		value := d.Value
		if d.Kind == catalog.MAC {
			value += macSuffix
		}
		c.Doses = append(c.Doses, DoseBlock{Label: d.Label, Value: value})
	}
	for _, s := range r.Skipped {
		c.Skipped = append(c.Skipped, fmt.Sprintf("%s: %s %s", s.Kind.Label(), s.Covariate, s.Reason))
	}
	return c
}

// Calculation builds the view of every category in calc.
func Calculation(calc *dosing.Calculation) CalculationView {
	view := CalculationView{
		ID:         calc.ID,
		Profile:    calc.Profile,
		BMI:        calc.BMI,
		Categories: make([]CategoryView, 0, len(calc.Categories)),
	}
	for _, res := range calc.Categories {
		view.Categories = append(view.Categories, Cards(res))
	}
	return view
}

// WriteText writes calc as aligned plain text.
func WriteText(w io.Writer, calc *dosing.Calculation) error {
	p := calc.Profile
	if _, err := fmt.Fprintf(w, "Patient: %d y, %s kg, %d cm, %s, ASA %d (BMI %.1f)\n",
		p.Age, trimFloat(p.Weight), p.Height, p.Sex, p.ASA, calc.BMI); err != nil {
		return err
	}

	for _, res := range calc.Categories {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := WriteCategoryText(w, Cards(res)); err != nil {
			return err
		}
	}
	return nil
}

// WriteCategoryText writes one category view as plain text.
func WriteCategoryText(w io.Writer, view CategoryView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "== %s ==\n", view.Title)
	if view.Message != "" {
		fmt.Fprintf(tw, "%s\n", view.Message)
		return tw.Flush()
	}

	for _, c := range view.Cards {
		fmt.Fprintf(tw, "\n%s\n", c.Name)
		for _, d := range c.Doses {
			fmt.Fprintf(tw, "  %s:\t%s\n", d.Label, d.Value)
		}
		if c.Preparation != "" {
			fmt.Fprintf(tw, "  Preparation:\t%s\n", c.Preparation)
		}
		for _, s := range c.Skipped {
			fmt.Fprintf(tw, "  Not computed:\t%s\n", s)
		}
	}

	if len(view.References) > 0 {
		fmt.Fprintf(tw, "\nReferences\n")
		for _, ref := range view.References {
			fmt.Fprintf(tw, "  - %s\n", ref)
		}
	}
	return tw.Flush()
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
