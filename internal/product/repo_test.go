package product_test

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/MikeMC777/tienda-ecom/internal/dbtest"
	"github.com/MikeMC777/tienda-ecom/internal/product"
)

type productRepoSuite struct {
	suite.Suite

	pool *pgxpool.Pool
	repo *product.PGRepo
}

func TestProductRepoSuite(t *testing.T) {
	suite.Run(t, new(productRepoSuite))
}

func (s *productRepoSuite) SetupSuite() {
	s.pool = dbtest.StartPostgres(s.T())
	s.repo = product.NewPGRepo(s.pool)
}

func (s *productRepoSuite) SetupTest() {
	dbtest.Truncate(s.T(), s.pool)
}

func (s *productRepoSuite) create(stock int) *product.Product {
	p := &product.Product{
		Name:          gofakeit.ProductName(),
		Description:   gofakeit.ProductDescription(),
		Price:         decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2),
		StockQuantity: stock,
	}
	s.Require().NoError(s.repo.Create(context.Background(), p))
	return p
}

func (s *productRepoSuite) TestCreateAndGet() {
	ctx := context.Background()
	p := s.create(7)
	s.Positive(p.ID)

	got, err := s.repo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Name, got.Name)
	s.True(p.Price.Equal(got.Price))
	s.Equal(7, got.StockQuantity)

	_, err = s.repo.GetByID(ctx, p.ID+1000)
	s.ErrorIs(err, product.ErrNotFound)
}

func (s *productRepoSuite) TestSave() {
	ctx := context.Background()

	p := &product.Product{Name: "fresh", Price: decimal.RequireFromString("3.30"), StockQuantity: 1}
	s.Require().NoError(s.repo.Save(ctx, p))
	s.Positive(p.ID)

	p.StockQuantity = 9
	p.Price = decimal.RequireFromString("4.10")
	s.Require().NoError(s.repo.Save(ctx, p))

	got, err := s.repo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(9, got.StockQuantity)
	s.Equal("4.1", got.Price.String())

	ghost := &product.Product{ID: 4242, Name: "ghost"}
	s.ErrorIs(s.repo.Save(ctx, ghost), product.ErrNotFound)

	p.StockQuantity = -1
	s.ErrorIs(s.repo.Save(ctx, p), product.ErrInvalid)
}

func (s *productRepoSuite) TestStockMovements() {
	ctx := context.Background()
	p := s.create(5)

	left, err := s.repo.DecrementStock(ctx, p.ID, 3)
	s.Require().NoError(err)
	s.Equal(2, left)

	_, err = s.repo.DecrementStock(ctx, p.ID, 3)
	s.ErrorIs(err, product.ErrInsufficientStock)

	left, err = s.repo.IncrementStock(ctx, p.ID, 3)
	s.Require().NoError(err)
	s.Equal(5, left)

	_, err = s.repo.IncrementStock(ctx, p.ID+1000, 1)
	s.ErrorIs(err, product.ErrNotFound)
}

func (s *productRepoSuite) TestLockByIDs_SortedAndSkipsMissing() {
	ctx := context.Background()
	a := s.create(1)
	b := s.create(1)

	tx, err := s.pool.Begin(ctx)
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback(ctx) }()

	locked, err := product.NewPGRepo(tx).LockByIDs(ctx, []int64{b.ID, 999999, a.ID})
	s.Require().NoError(err)
	s.Require().Len(locked, 2)
	s.Equal(a.ID, locked[0].ID)
	s.Equal(b.ID, locked[1].ID)
}

func (s *productRepoSuite) TestUpdate() {
	ctx := context.Background()
	p := s.create(4)

	name := "renamed"
	updated, err := s.repo.Update(ctx, p.ID, product.UpdateProductRequest{Name: &name}.Apply)
	s.Require().NoError(err)
	s.Equal("renamed", updated.Name)
	s.Equal(4, updated.StockQuantity)

	neg := -2
	_, err = s.repo.Update(ctx, p.ID, product.UpdateProductRequest{Stock: &neg}.Apply)
	s.ErrorIs(err, product.ErrInvalid)

	_, err = s.repo.Update(ctx, p.ID+1000, product.UpdateProductRequest{Name: &name}.Apply)
	s.ErrorIs(err, product.ErrNotFound)
}

func (s *productRepoSuite) TestList() {
	ctx := context.Background()
	for range 3 {
		s.create(1)
	}

	page, err := s.repo.List(ctx, product.Query{Limit: 2})
	s.Require().NoError(err)
	s.Len(page, 2)

	rest, err := s.repo.List(ctx, product.Query{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(rest, 1)
}

func (s *productRepoSuite) TestDelete() {
	ctx := context.Background()
	p := s.create(1)

	ok, err := s.repo.Delete(ctx, p.ID)
	require.NoError(s.T(), err)
	s.True(ok)

	ok, err = s.repo.Delete(ctx, p.ID)
	require.NoError(s.T(), err)
	s.False(ok)
}
