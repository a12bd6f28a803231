package order

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// OrderLine payload of one requested line.
// swagger:model OrderLine
type OrderLine struct {
	ProductID int64 `json:"productId" example:"12"`
	Quantity  int   `json:"quantity"  example:"2"`
}

// PlaceOrderRequest payload of order placement. Lines are processed in order.
// swagger:model PlaceOrderRequest
type PlaceOrderRequest struct {
	UserID int64       `json:"userId" example:"7"`
	Items  []OrderLine `json:"items"`
}

func (r PlaceOrderRequest) Validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("%w: userId must be positive", ErrInvalidRequest)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidRequest)
	}
	for i, line := range r.Items {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: items[%d].productId must be positive", ErrInvalidRequest, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be positive", ErrInvalidRequest, i)
		}
	}
	return nil
}

// ProductIDs returns the distinct referenced product ids in ascending order.
func (r PlaceOrderRequest) ProductIDs() []int64 {
	ids := lo.Uniq(lo.Map(r.Items, func(line OrderLine, _ int) int64 { return line.ProductID }))
	slices.Sort(ids)
	return ids
}

// ItemResponse is one persisted order line.
// swagger:model ItemResponse
type ItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" swaggertype:"string" example:"19.99"`
	Subtotal  decimal.Decimal `json:"subtotal"  swaggertype:"string" example:"39.98"`
}

// OrderResponse is the persisted order representation.
// swagger:model OrderResponse
type OrderResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Status      Status          `json:"status" example:"PENDING"`
	OrderDate   time.Time       `json:"orderDate"`
	TotalAmount decimal.Decimal `json:"totalAmount" swaggertype:"string" example:"39.98"`
	Currency    string          `json:"currency" example:"USD"`
	Items       []ItemResponse  `json:"items"`
}

func NewOrderResponse(o *Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		OrderDate:   o.OrderDate,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency.String(),
		Items: lo.Map(o.Items, func(it Item, _ int) ItemResponse {
			return ItemResponse{
				ID:        it.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Subtotal:  it.Subtotal(),
			}
		}),
	}
}

func NewOrderResponses(orders []Order) []OrderResponse {
	return lo.Map(orders, func(o Order, _ int) OrderResponse { return NewOrderResponse(&o) })
}
