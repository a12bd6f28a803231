package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeMC777/tienda-ecom/internal/db"
	"github.com/MikeMC777/tienda-ecom/internal/product"
)

// InventoryGuard checks and moves product stock inside a unit of work.
type InventoryGuard struct{}

// Reserve takes qty units of p. p must have been read under lock in the same
// unit of work; its StockQuantity is updated so later lines for the same
// product see what is left. On shortage nothing is written.
func (InventoryGuard) Reserve(ctx context.Context, s StockStore, p *product.Product, qty int) error {
	if p.StockQuantity < qty {
		return &InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.StockQuantity,
			Requested:   qty,
		}
	}

	left, err := s.DecrementStock(ctx, p.ID, qty)
	if err != nil {
		if errors.Is(err, product.ErrInsufficientStock) {
			// the row moved under us, so our view of it is stale
			return fmt.Errorf("%w: stock of product %d changed during placement", db.ErrSerialization, p.ID)
		}
		return fmt.Errorf("decrement stock of product %d: %w", p.ID, err)
	}
	p.StockQuantity = left
	return nil
}

// Release returns qty units of the product to stock.
func (InventoryGuard) Release(ctx context.Context, s StockStore, productID int64, qty int) error {
	if _, err := s.IncrementStock(ctx, productID, qty); err != nil {
		return fmt.Errorf("release stock of product %d: %w", productID, err)
	}
	return nil
}
