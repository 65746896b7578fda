package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophshop/internal/client/filter"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/reviews"
)

// Products lists the catalog narrowed by the search term in args. An empty
// term shows everything and clears a previous search.
func (a *App) Products(ctx context.Context, args []string) error {
	a.store.SetSearchTerm(strings.Join(args, " "))

	list, err := a.catalog.Products(ctx)
	if err != nil {
		return err
	}

	a.printProducts(a.store.VisibleProducts(list))
	return nil
}

// Query lists the products matching an expression such as
// "price < 20 && stock > 0".
func (a *App) Query(ctx context.Context, args []string) error {
	q, err := filter.Compile(strings.Join(args, " "))
	if err != nil {
		return err
	}

	list, err := a.catalog.Products(ctx)
	if err != nil {
		return err
	}

	matched, err := q.Filter(list)
	if err != nil {
		return err
	}
	a.printProducts(matched)
	return nil
}

// Show prints one product with remote and local reviews.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseProductID(args)
	if err != nil {
		return err
	}

	p, err := a.catalog.Product(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "#%d %s\n", p.ID, p.Title)
	if p.Brand != "" {
		fmt.Fprintf(a.out, "Brand: %s\n", p.Brand)
	}
	fmt.Fprintf(a.out, "Category: %s\n", p.Category)
	fmt.Fprintf(a.out, "Price: %s (-%.0f%%)\n", money(p.Price), p.DiscountPercentage)
	fmt.Fprintf(a.out, "Rating: %.1f, in stock: %d\n", p.Rating, p.Stock)
	fmt.Fprintln(a.out, p.Description)
	fmt.Fprintln(a.out, a.badges(p.ID))

	merged := a.store.MergedReviews(*p)
	if len(merged) == 0 {
		fmt.Fprintln(a.out, "No reviews yet")
		return nil
	}

	fmt.Fprintf(a.out, "Reviews (%d, average %.1f):\n", len(merged), reviews.Average(merged))
	for _, r := range merged {
		a.printReview(r)
	}
	return nil
}

func (a *App) printProducts(products []models.Product) {
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products found")
		return
	}
	for _, p := range products {
		fmt.Fprintf(a.out, "%4d  %-40s %10s  %s\n", p.ID, p.Title, money(p.Price), a.badges(p.ID))
	}
}

func (a *App) printReview(r models.DisplayReview) {
	n := min(max(r.Rating, 0), 5)
	stars := strings.Repeat("*", n) + strings.Repeat(".", 5-n)
	fmt.Fprintf(a.out, "  [%s] %s (%s)", stars, r.ReviewerName, r.Date.Format("2006-01-02"))
	if r.IsLocal {
		fmt.Fprintf(a.out, " local %s", r.ID)
	}
	fmt.Fprintf(a.out, "\n    %s\n", r.Comment)
}

// badges marks products that are in the cart or favorites.
func (a *App) badges(id int) string {
	var b []string
	if a.store.InCart(id) {
		b = append(b, "in cart")
	}
	if a.store.IsFavorite(id) {
		b = append(b, "favorite")
	}
	if len(b) == 0 {
		return ""
	}
	return "[" + strings.Join(b, ", ") + "]"
}
