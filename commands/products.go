package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"product-console/catalog"
	"product-console/forms"
	"product-console/models"
	"product-console/ui"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxParallelDeletes bounds concurrent delete requests
const maxParallelDeletes = 4

// displayError shows a user-facing message while keeping the cause for errors.Is
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }

func (e *displayError) Unwrap() error { return e.err }

func userError(msg string, err error) error {
	if msg == "" {
		return err
	}
	return &displayError{msg: msg, err: err}
}

// load fetches the collection, translating the logged-out case
func load(cmd *cobra.Command, list *catalog.ListModel) error {
	if err := list.Load(cmd.Context()); err != nil {
		if errors.Is(err, catalog.ErrLoggedOut) {
			return userError(ui.MsgLoggedOut, err)
		}
		return userError(list.Status(), err)
	}
	return nil
}

func newListCommand(a *app) *cobra.Command {
	var (
		criteria  catalog.Criteria
		prefilter bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long: `List products matching every given filter. Filters are applied together:
a product is shown only when its name contains --search (case-insensitive),
its price is below --max-price, its rating is at least --min-rating and, with
--featured, it is featured.`,
		Args: cobra.NoArgs,
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			switch output {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (table, json or yaml)", output)
			}

			list := a.newList(prefilter)
			defer list.Close()
			list.SetCriteria(criteria)
			if err := load(cmd, list); err != nil {
				return err
			}
			return writeProducts(cmd.OutOrStdout(), output, list.Visible())
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&criteria.SearchText, "search", "s", "", "case-insensitive name substring")
	f.StringVar(&criteria.MaxPrice, "max-price", "", "only products cheaper than this")
	f.IntVar(&criteria.MinRating, "min-rating", 0, "only products rated at least this (0-5)")
	f.BoolVar(&criteria.FeaturedOnly, "featured", false, "only featured products")
	f.BoolVar(&prefilter, "server-filter", false, "let the backend narrow the listing first")
	f.StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func writeProducts(w io.Writer, format string, products []models.Product) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(products)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(products); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "No products found")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "PRICE", "COMPANY", "RATING", "FEATURED")
	for _, p := range products {
		featured := ""
		if p.Featured {
			featured = "yes"
		}
		t.Row(
			p.ID,
			p.DisplayName(),
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			p.Company,
			strconv.Itoa(p.Rating),
			featured,
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func newAddCommand(a *app) *cobra.Command {
	var form forms.AddProductForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			list := a.newList(false)
			defer list.Close()

			created, err := form.Submit(cmd.Context(), list)
			if err != nil {
				return userError(form.Error, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product added: %s\n", created.ID)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "product name")
	f.StringVar(&form.Price, "price", "", "price")
	f.StringVar(&form.Company, "company", "", "company")
	f.StringVar(&form.Rating, "rating", "", "rating from 1 to 5")
	f.BoolVar(&form.Featured, "featured", false, "mark as featured")
	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var (
		name, price, company, rating string
		featured                     bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a product",
		Long:  `Update a product. Only the given flags are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			list := a.newList(false)
			defer list.Close()
			if err := load(cmd, list); err != nil {
				return err
			}

			current, err := list.BeginEdit(args[0])
			if err != nil {
				return fmt.Errorf("product %s: %w", args[0], err)
			}

			form := forms.NewUpdateForm(current)
			flags := cmd.Flags()
			if flags.Changed("name") {
				form.Name = name
			}
			if flags.Changed("price") {
				form.Price = price
			}
			if flags.Changed("company") {
				form.Company = company
			}
			if flags.Changed("rating") {
				form.Rating = rating
			}
			if flags.Changed("featured") {
				form.Featured = featured
			}

			updated, err := form.Submit(cmd.Context(), list)
			if err != nil {
				return userError(form.Error, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product updated: %s\n", updated.ID)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVar(&price, "price", "", "new price")
	f.StringVar(&company, "company", "", "new company")
	f.StringVar(&rating, "rating", "", "new rating from 1 to 5")
	f.BoolVar(&featured, "featured", false, "featured flag")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete products",
		Args:  cobra.MinimumNArgs(1),
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			list := a.newList(false)
			defer list.Close()
			if err := load(cmd, list); err != nil {
				return err
			}

			listed := make(map[string]bool)
			for _, p := range list.Products() {
				listed[p.ID] = true
			}
			ids := make([]string, 0, len(args))
			seen := make(map[string]bool)
			for _, id := range args {
				if !listed[id] {
					return fmt.Errorf("product %s: %w", id, catalog.ErrNotFound)
				}
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxParallelDeletes)
			for _, id := range ids {
				id := id
				g.Go(func() error {
					if err := list.Delete(ctx, id); err != nil {
						return userError(fmt.Sprintf("%s %s", catalog.MsgDeleteFailed, id), err)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d product(s)\n", len(ids))
			return nil
		}),
	}
}
