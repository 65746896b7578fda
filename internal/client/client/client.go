package client

import (
	"context"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// Client is the read-only product catalog.
type Client interface {
	Products(ctx context.Context, limit int) ([]models.Product, error)
	Product(ctx context.Context, id int) (*models.Product, error)
}
