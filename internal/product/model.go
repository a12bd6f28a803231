package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalid wraps every validation failure of a product payload.
var ErrInvalid = errors.New("invalid product")

type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// NUMERIC in Postgres; encoded as a JSON string to keep it exact
	Price         decimal.Decimal `json:"price" swaggertype:"string" example:"199.90"`
	StockQuantity int             `json:"stock"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalid)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalid)
	}
	return nil
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// page items
	Items []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string `json:"name"        example:"Mecanical Keyboard"`
	Description string `json:"description" example:"RGB 60%"`
	Price       string `json:"price"       example:"199.90"`
	Stock       int    `json:"stock"       example:"10"`
}

func (r CreateProductRequest) ToProduct() (*Product, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return nil, fmt.Errorf("%w: price must be a decimal number", ErrInvalid)
	}
	p := &Product{
		Name:          strings.TrimSpace(r.Name),
		Description:   r.Description,
		Price:         price,
		StockQuantity: r.Stock,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProductRequest payload of partial update. Absent fields are left unchanged.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
}

// Apply copies the present fields onto p. Orders already placed keep their own
// unit price, so a price change here never reaches them.
func (r UpdateProductRequest) Apply(p *Product) error {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*r.Price))
		if err != nil {
			return fmt.Errorf("%w: price must be a decimal number", ErrInvalid)
		}
		p.Price = price
	}
	if r.Stock != nil {
		p.StockQuantity = *r.Stock
	}
	return p.Validate()
}
