package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/MikeMC777/tienda-ecom/internal/product"
	"github.com/MikeMC777/tienda-ecom/internal/user"
)

// Assembler builds and persists an order aggregate from a placement request.
// It must run inside a unit of work; it does no rollback of its own.
type Assembler struct {
	guard    InventoryGuard
	currency currency.Unit
	now      func() time.Time
}

func NewAssembler(cur currency.Unit, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{currency: cur, now: now}
}

func (a *Assembler) Assemble(ctx context.Context, s Store, req PlaceOrderRequest) (*Order, error) {
	if _, err := s.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &UserNotFoundError{UserID: req.UserID}
		}
		return nil, fmt.Errorf("get user %d: %w", req.UserID, err)
	}

	o := &Order{
		UserID: req.UserID,
		Status: StatusPending,
		// postgres keeps microseconds
		OrderDate:   a.now().UTC().Truncate(time.Microsecond),
		TotalAmount: decimal.Zero,
		Currency:    a.currency,
	}

	locked, err := s.LockProducts(ctx, req.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	products := lo.KeyBy(locked, func(p *product.Product) int64 { return p.ID })

	for _, line := range req.Items {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		if err := a.guard.Reserve(ctx, s, p, line.Quantity); err != nil {
			return nil, err
		}
		o.AddItem(p.ID, line.Quantity, p.Price)
	}

	if err := s.SaveOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return o, nil
}
