package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

func (a *App) Cart(ctx context.Context) error {
	items := a.store.Cart()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}
	for _, p := range items {
		fmt.Fprintf(a.out, "%4d  %-40s %10s\n", p.ID, p.Title, money(p.Price))
	}
	fmt.Fprintf(a.out, "Total: %s (%d items)\n", money(a.store.CartTotal()), len(items))
	return nil
}

// AddToCart fetches the product so the cart keeps a full copy of it.
func (a *App) AddToCart(ctx context.Context, args []string) error {
	p, err := a.lookup(ctx, args)
	if err != nil {
		return err
	}
	if a.store.InCart(p.ID) {
		fmt.Fprintf(a.out, "%s is already in the cart\n", p.Title)
		return nil
	}
	a.store.AddToCart(ctx, *p)
	fmt.Fprintf(a.out, "Added %s to the cart\n", p.Title)
	return nil
}

func (a *App) RemoveFromCart(ctx context.Context, args []string) error {
	id, err := parseProductID(args)
	if err != nil {
		return err
	}
	a.store.RemoveFromCart(ctx, id)
	fmt.Fprintln(a.out, "Removed")
	return nil
}

func (a *App) ClearCart(ctx context.Context) error {
	a.store.ClearCart(ctx)
	fmt.Fprintln(a.out, "Cart cleared")
	return nil
}

func (a *App) ToggleFavorite(ctx context.Context, args []string) error {
	p, err := a.lookup(ctx, args)
	if err != nil {
		return err
	}
	if a.store.ToggleFavorite(ctx, *p) {
		fmt.Fprintf(a.out, "Added %s to favorites\n", p.Title)
	} else {
		fmt.Fprintf(a.out, "Removed %s from favorites\n", p.Title)
	}
	return nil
}

func (a *App) Favorites(ctx context.Context) error {
	items := a.store.Favorites()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No favorites yet")
		return nil
	}
	for _, p := range items {
		fmt.Fprintf(a.out, "%4d  %-40s %10s\n", p.ID, p.Title, money(p.Price))
	}
	return nil
}

func (a *App) Unfavorite(ctx context.Context, args []string) error {
	id, err := parseProductID(args)
	if err != nil {
		return err
	}
	a.store.RemoveFromFavorites(ctx, id)
	fmt.Fprintln(a.out, "Removed from favorites")
	return nil
}

func (a *App) lookup(ctx context.Context, args []string) (*models.Product, error) {
	id, err := parseProductID(args)
	if err != nil {
		return nil, err
	}
	return a.catalog.Product(ctx, id)
}
