package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophshop/internal/client/store"
)

var errReviewUsage = errors.New("usage: <product-id> <review-id>")

// AddReview writes a local review for the product in args.
func (a *App) AddReview(ctx context.Context, args []string) error {
	p, err := a.lookup(ctx, args)
	if err != nil {
		return err
	}

	in, err := a.askReview("Review for " + p.Title)
	if err != nil {
		return err
	}

	res := a.store.AddReview(ctx, p.ID, in)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintf(a.out, "Review %s added\n", res.Review.ID)
	return nil
}

func (a *App) EditReview(ctx context.Context, args []string) error {
	productID, reviewID, err := reviewArgs(args)
	if err != nil {
		return err
	}

	in, err := a.askReview("New review text")
	if err != nil {
		return err
	}

	res := a.store.UpdateReview(ctx, productID, reviewID, in)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Review saved")
	return nil
}

func (a *App) DeleteReview(ctx context.Context, args []string) error {
	productID, reviewID, err := reviewArgs(args)
	if err != nil {
		return err
	}

	res := a.store.DeleteReview(ctx, productID, reviewID)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Review deleted")
	return nil
}

func (a *App) askReview(title string) (store.ReviewInput, error) {
	var in store.ReviewInput

	raw, err := a.ask(title + "\nRating (1-5)")
	if err != nil {
		return in, err
	}
	if in.Rating, err = strconv.Atoi(raw); err != nil {
		return in, fmt.Errorf("invalid rating %q", raw)
	}

	if in.Comment, err = getMultiline(a.reader, "Comment", a.out); err != nil {
		return in, err
	}
	return in, nil
}

func reviewArgs(args []string) (int, string, error) {
	if len(args) < 2 {
		return 0, "", errReviewUsage
	}
	id, err := parseProductID(args[:1])
	if err != nil {
		return 0, "", err
	}
	return id, args[1], nil
}
