package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

func ToStatus(s string) (Status, error) {
	switch status := Status(strings.ToUpper(strings.TrimSpace(s))); status {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("invalid order status %q", s)
	}
}

// Order is the aggregate root; it exclusively owns its Items.
type Order struct {
	ID          int64
	UserID      int64
	Status      Status
	OrderDate   time.Time
	TotalAmount decimal.Decimal
	Currency    currency.Unit
	Items       []Item
}

// Item is one order line. UnitPrice is the product price at placement time
// and is never updated afterwards.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	LineNo    int
	Quantity  int
	UnitPrice decimal.Decimal
}

func (it Item) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// AddItem appends a line and folds its subtotal into the total.
func (o *Order) AddItem(productID int64, qty int, unitPrice decimal.Decimal) {
	it := Item{
		ProductID: productID,
		LineNo:    len(o.Items) + 1,
		Quantity:  qty,
		UnitPrice: unitPrice,
	}
	o.Items = append(o.Items, it)
	o.TotalAmount = o.TotalAmount.Add(it.Subtotal())
}
