// Package filter narrows a product list, either by a free-text search term or
// by a boolean query expression.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

var ErrEmptyQuery = errors.New("query must not be empty")

// Products keeps the products whose title, description or brand contains
// term, ignoring case. An empty term keeps everything. Order is preserved.
func Products(products []models.Product, term string) []models.Product {
	if term == "" {
		return products
	}

	needle := strings.ToLower(term)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		(p.Brand != "" && strings.Contains(strings.ToLower(p.Brand), needle))
}

// Query is a compiled product predicate such as
//
//	price < 20 && stock > 0
//	brand == "Apple" || rating >= 4.5
type Query struct {
	source  string
	program *vm.Program
}

// Compile parses expression against the product fields: id, title,
// description, category, brand, price, discount, rating, stock.
func Compile(expression string) (*Query, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, ErrEmptyQuery
	}

	program, err := expr.Compile(expression, expr.Env(env(models.Product{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	return &Query{source: expression, program: program}, nil
}

func (q *Query) String() string { return q.source }

// Match evaluates the query for one product.
func (q *Query) Match(p models.Product) (bool, error) {
	out, err := expr.Run(q.program, env(p))
	if err != nil {
		return false, fmt.Errorf("evaluate %q for product %d: %w", q.source, p.ID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Filter keeps the matching products in order. The first evaluation error
// stops the scan.
func (q *Query) Filter(products []models.Product) ([]models.Product, error) {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		ok, err := q.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ByQuery compiles expression and applies it to products.
func ByQuery(products []models.Product, expression string) ([]models.Product, error) {
	q, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return q.Filter(products)
}

func env(p models.Product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"category":    p.Category,
		"brand":       p.Brand,
		"price":       p.Price,
		"discount":    p.DiscountPercentage,
		"rating":      p.Rating,
		"stock":       p.Stock,
	}
}
