package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"

	"github.com/MikeMC777/tienda-ecom/internal/dbtest"
	"github.com/MikeMC777/tienda-ecom/internal/order"
	"github.com/MikeMC777/tienda-ecom/internal/product"
	"github.com/MikeMC777/tienda-ecom/internal/user"
)

type placementSuite struct {
	suite.Suite

	pool     *pgxpool.Pool
	users    *user.PGRepo
	products *product.PGRepo
	orders   *order.PGRepo
}

func TestPlacementSuite(t *testing.T) {
	suite.Run(t, new(placementSuite))
}

func (s *placementSuite) SetupSuite() {
	s.pool = dbtest.StartPostgres(s.T())
	s.users = user.NewPGRepo(s.pool)
	s.products = product.NewPGRepo(s.pool)
	s.orders = order.NewPGRepo(s.pool)
}

func (s *placementSuite) SetupTest() {
	dbtest.Truncate(s.T(), s.pool)
}

func (s *placementSuite) service(iso pgx.TxIsoLevel) *order.Service {
	return order.NewService(
		order.NewTxManager(s.pool, pgx.TxOptions{IsoLevel: iso}),
		s.orders,
		order.Options{MaxAttempts: 5, Currency: currency.USD},
	)
}

func (s *placementSuite) newUser() *user.User {
	u := &user.User{Email: gofakeit.Email(), PasswordHash: "x", FullName: gofakeit.Name(), Role: user.RoleCustomer}
	s.Require().NoError(s.users.Create(context.Background(), u))
	return u
}

func (s *placementSuite) newProduct(price string, stock int) *product.Product {
	p := &product.Product{Name: gofakeit.ProductName(), Price: decimal.RequireFromString(price), StockQuantity: stock}
	s.Require().NoError(s.products.Create(context.Background(), p))
	return p
}

func (s *placementSuite) stock(id int64) int {
	p, err := s.products.GetByID(context.Background(), id)
	s.Require().NoError(err)
	return p.StockQuantity
}

func (s *placementSuite) orderCount() int {
	var n int
	s.Require().NoError(s.pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM orders`).Scan(&n))
	return n
}

func (s *placementSuite) TestPlaceAndRead() {
	ctx := context.Background()
	u := s.newUser()
	p := s.newProduct("12.35", 5)

	placed, err := s.service(pgx.ReadCommitted).PlaceOrder(ctx, order.PlaceOrderRequest{
		UserID: u.ID,
		Items:  []order.OrderLine{{ProductID: p.ID, Quantity: 3}},
	})
	s.Require().NoError(err)
	s.Equal("37.05", placed.TotalAmount.String())
	s.Equal(2, s.stock(p.ID))

	// later price changes must not reach the order
	_, err = s.products.Update(ctx, p.ID, func(p *product.Product) error {
		p.Price = decimal.RequireFromString("50")
		return nil
	})
	s.Require().NoError(err)

	got, err := s.orders.GetByID(ctx, placed.ID)
	s.Require().NoError(err)
	s.Equal(placed.ID, got.ID)
	s.Equal("USD", got.Currency.String())
	s.True(got.TotalAmount.Equal(placed.TotalAmount))
	s.True(got.OrderDate.Equal(placed.OrderDate))
	s.Require().Len(got.Items, 1)
	s.Equal("12.35", got.Items[0].UnitPrice.String())

	history, err := s.orders.ListByUser(ctx, u.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *placementSuite) TestFailuresRollBack() {
	ctx := context.Background()
	u := s.newUser()
	a := s.newProduct("1.00", 5)
	b := s.newProduct("2.00", 2)
	svc := s.service(pgx.ReadCommitted)

	_, err := svc.PlaceOrder(ctx, order.PlaceOrderRequest{UserID: u.ID, Items: []order.OrderLine{
		{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 3},
	}})
	s.ErrorIs(err, order.ErrInsufficientStock)

	_, err = svc.PlaceOrder(ctx, order.PlaceOrderRequest{UserID: u.ID, Items: []order.OrderLine{
		{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID + 100, Quantity: 1},
	}})
	s.ErrorIs(err, order.ErrProductNotFound)

	_, err = svc.PlaceOrder(ctx, order.PlaceOrderRequest{UserID: u.ID + 100, Items: []order.OrderLine{
		{ProductID: a.ID, Quantity: 1},
	}})
	s.ErrorIs(err, order.ErrUserNotFound)

	s.Equal(5, s.stock(a.ID))
	s.Equal(2, s.stock(b.ID))
	s.Zero(s.orderCount())
}

func (s *placementSuite) TestAnonymizedUserCannotOrderButKeepsHistory() {
	ctx := context.Background()
	u := s.newUser()
	p := s.newProduct("1.00", 5)
	svc := s.service(pgx.ReadCommitted)

	_, err := svc.PlaceOrder(ctx, order.PlaceOrderRequest{UserID: u.ID, Items: []order.OrderLine{{ProductID: p.ID, Quantity: 1}}})
	s.Require().NoError(err)

	ok, err := s.users.Anonymize(ctx, u.ID)
	s.Require().NoError(err)
	s.True(ok)

	_, err = svc.PlaceOrder(ctx, order.PlaceOrderRequest{UserID: u.ID, Items: []order.OrderLine{{ProductID: p.ID, Quantity: 1}}})
	s.ErrorIs(err, order.ErrUserNotFound)

	history, err := svc.UserOrders(ctx, u.ID)
	s.Require().NoError(err)
	s.Len(history, 1)

	_, err = s.products.Delete(ctx, p.ID)
	s.ErrorIs(err, product.ErrInUse)
}

func (s *placementSuite) TestCancelRestocks() {
	ctx := context.Background()
	u := s.newUser()
	p := s.newProduct("4.00", 5)
	svc := s.service(pgx.ReadCommitted)

	placed, err := svc.PlaceOrder(ctx, order.PlaceOrderRequest{UserID: u.ID, Items: []order.OrderLine{{ProductID: p.ID, Quantity: 4}}})
	s.Require().NoError(err)
	s.Equal(1, s.stock(p.ID))

	cancelled, err := svc.CancelOrder(ctx, placed.ID)
	s.Require().NoError(err)
	s.Equal(order.StatusCancelled, cancelled.Status)
	s.Equal(5, s.stock(p.ID))

	_, err = svc.CancelOrder(ctx, placed.ID)
	s.ErrorIs(err, order.ErrInvalidTransition)
}

func (s *placementSuite) TestConcurrentPlacements() {
	for _, iso := range []pgx.TxIsoLevel{pgx.ReadCommitted, pgx.Serializable} {
		s.Run(string(iso), func() {
			dbtest.Truncate(s.T(), s.pool)
			u := s.newUser()
			hot := s.newProduct("3.00", 5)
			other := s.newProduct("1.00", 100)
			svc := s.service(iso)

			const workers = 8
			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				ok  int
				bad []error
			)
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					// alternate line order so lock ordering matters
					lines := []order.OrderLine{{ProductID: hot.ID, Quantity: 3}, {ProductID: other.ID, Quantity: 1}}
					if i%2 == 1 {
						lines[0], lines[1] = lines[1], lines[0]
					}
					_, err := svc.PlaceOrder(context.Background(), order.PlaceOrderRequest{UserID: u.ID, Items: lines})

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case errors.Is(err, order.ErrInsufficientStock), errors.Is(err, order.ErrConcurrencyConflict):
					default:
						bad = append(bad, err)
					}
				}()
			}
			wg.Wait()

			s.Empty(bad)
			s.Equal(1, ok)
			s.Equal(2, s.stock(hot.ID))
			s.Equal(99, s.stock(other.ID))
			s.Equal(1, s.orderCount())
		})
	}
}
