package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/giygas/anesdose/catalog"
)

// Lister is the part of a catalog the listing views read.
type Lister interface {
	EntriesFor(category catalog.Category) []catalog.Entry
	Len() int
	Version() string
}

// EntryView describes a catalog entry without evaluating it.
type EntryView struct {
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Fields      []string `json:"fields"`
	Preparation string   `json:"preparation,omitempty"`
	References  []string `json:"references"`
}

// CatalogCategoryView lists the entries of one category.
type CatalogCategoryView struct {
	Category catalog.Category `json:"category"`
	Title    string           `json:"title"`
	Entries  []EntryView      `json:"entries"`
	Message  string           `json:"message,omitempty"`
}

// CatalogView is the whole catalog listing.
type CatalogView struct {
	Version    string                `json:"version"`
	Total      int                   `json:"total"`
	Categories []CatalogCategoryView `json:"categories"`
}

// Entry builds the view of a single catalog entry.
func Entry(e catalog.Entry) EntryView {
	view := EntryView{
		Name:        e.Name,
		Category:    e.Category,
		Fields:      []string{},
		Preparation: e.Preparation,
		References:  append([]string{}, e.References...),
	}
	for _, kind := range e.Kinds() {
		view.Fields = append(view.Fields, kind.Label())
	}
	return view
}

// CatalogCategory lists one category of c.
func CatalogCategory(c Lister, category catalog.Category) CatalogCategoryView {
	entries := c.EntriesFor(category)
	view := CatalogCategoryView{
		Category: category,
		Title:    category.Title(),
		Entries:  make([]EntryView, 0, len(entries)),
	}
	for _, e := range entries {
		view.Entries = append(view.Entries, Entry(e))
	}
	if len(view.Entries) == 0 {
		view.Message = EmptyCategoryMessage
	}
	return view
}

// Catalog lists the given categories of c, or all of them when none are given.
func Catalog(c Lister, categories ...catalog.Category) CatalogView {
	if len(categories) == 0 {
		categories = catalog.Categories()
	}
	view := CatalogView{
		Version:    c.Version(),
		Total:      c.Len(),
		Categories: make([]CatalogCategoryView, 0, len(categories)),
	}
	for _, category := range categories {
		view.Categories = append(view.Categories, CatalogCategory(c, category))
	}
	return view
}

// WriteCatalogText writes a catalog listing as plain text.
func WriteCatalogText(w io.Writer, view CatalogView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Catalog %s (%d drugs)\n", view.Version, view.Total)
	for _, cat := range view.Categories {
		fmt.Fprintf(tw, "\n== %s ==\n", cat.Title)
		if cat.Message != "" {
			fmt.Fprintf(tw, "%s\n", cat.Message)
			continue
		}
		for _, e := range cat.Entries {
			fmt.Fprintf(tw, "  %s\t%s\n", e.Name, strings.Join(e.Fields, ", "))
		}
	}
	return tw.Flush()
}
