package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductRequest_ToProduct(t *testing.T) {
	p, err := CreateProductRequest{Name: " Keyboard ", Price: "199.90", Stock: 10}.ToProduct()
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", p.Name)
	assert.True(t, decimal.RequireFromString("199.9").Equal(p.Price))
	assert.Equal(t, 10, p.StockQuantity)

	invalid := []CreateProductRequest{
		{Name: "", Price: "1", Stock: 1},
		{Name: "x", Price: "abc", Stock: 1},
		{Name: "x", Price: "-1", Stock: 1},
		{Name: "x", Price: "1", Stock: -1},
	}
	for _, req := range invalid {
		_, err := req.ToProduct()
		assert.ErrorIs(t, err, ErrInvalid, "%+v", req)
	}
}

func TestUpdateProductRequest_Apply(t *testing.T) {
	p := &Product{ID: 1, Name: "Mouse", Description: "usb", Price: decimal.RequireFromString("10"), StockQuantity: 3}

	price := "12.50"
	require.NoError(t, UpdateProductRequest{Price: &price}.Apply(p))
	assert.Equal(t, "Mouse", p.Name)
	assert.Equal(t, "usb", p.Description)
	assert.Equal(t, "12.5", p.Price.String())
	assert.Equal(t, 3, p.StockQuantity)

	neg := -1
	assert.ErrorIs(t, UpdateProductRequest{Stock: &neg}.Apply(p), ErrInvalid)
}
