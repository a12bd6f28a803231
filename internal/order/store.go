package order

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/MikeMC777/tienda-ecom/internal/db"
	"github.com/MikeMC777/tienda-ecom/internal/product"
	"github.com/MikeMC777/tienda-ecom/internal/user"
)

// StockStore moves product stock. DecrementStock must never take a row below zero.
type StockStore interface {
	DecrementStock(ctx context.Context, productID int64, qty int) (int, error)
	IncrementStock(ctx context.Context, productID int64, qty int) (int, error)
}

// Store is the view of the database a single unit of work operates on.
type Store interface {
	StockStore
	// GetUser returns an active user and keeps it from being deleted until
	// the unit of work ends.
	GetUser(ctx context.Context, id int64) (*user.User, error)
	// LockProducts returns the existing products among ids, locked for the
	// rest of the unit of work and sorted by id.
	LockProducts(ctx context.Context, ids []int64) ([]*product.Product, error)
	SaveOrder(ctx context.Context, o *Order) error
	GetOrderForUpdate(ctx context.Context, id int64) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
}

// UnitOfWork runs fn atomically: everything fn did through the Store is
// committed when it returns nil and discarded otherwise.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	users    *user.PGRepo
	products *product.PGRepo
	orders   *PGRepo
}

func newPGStore(tx pgx.Tx) *pgStore {
	return &pgStore{
		users:    user.NewPGRepo(tx),
		products: product.NewPGRepo(tx),
		orders:   NewPGRepo(tx),
	}
}

func (s *pgStore) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.users.GetByIDForShare(ctx, id)
}

func (s *pgStore) LockProducts(ctx context.Context, ids []int64) ([]*product.Product, error) {
	return s.products.LockByIDs(ctx, ids)
}

func (s *pgStore) DecrementStock(ctx context.Context, productID int64, qty int) (int, error) {
	return s.products.DecrementStock(ctx, productID, qty)
}

func (s *pgStore) IncrementStock(ctx context.Context, productID int64, qty int) (int, error) {
	return s.products.IncrementStock(ctx, productID, qty)
}

func (s *pgStore) SaveOrder(ctx context.Context, o *Order) error {
	return s.orders.Insert(ctx, o)
}

func (s *pgStore) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	return s.orders.GetByIDForUpdate(ctx, id)
}

func (s *pgStore) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	return s.orders.UpdateStatus(ctx, id, status)
}

// TxManager is the PostgreSQL UnitOfWork: one pgx transaction per Run.
type TxManager struct {
	db   db.DBTX
	opts pgx.TxOptions
}

func NewTxManager(conn db.DBTX, opts pgx.TxOptions) *TxManager {
	return &TxManager{db: conn, opts: opts}
}

func (m *TxManager) Run(ctx context.Context, fn func(Store) error) error {
	_, err := db.WithTx(ctx, m.db, m.opts, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(newPGStore(tx))
	})
	return err
}
