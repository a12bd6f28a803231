package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/MikeMC777/tienda-ecom/internal/db"
)

const queryTimeout = 5 * time.Second

// Reader serves the read-only order queries that need no transaction.
type Reader interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

type PGRepo struct{ db db.DBTX }

func NewPGRepo(conn db.DBTX) *PGRepo { return &PGRepo{db: conn} }

const orderColumns = `id, user_id, status, order_date, total_amount::text, currency`

// Insert persists the header and every item atomically, joining the caller's
// transaction when there is one. Generated ids are written back into o.
func (r *PGRepo) Insert(ctx context.Context, o *Order) error {
	_, err := db.WithTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, status, order_date, total_amount, currency)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, o.UserID, string(o.Status), o.OrderDate, o.TotalAmount.String(), o.Currency.String()).Scan(&o.ID); err != nil {
			return struct{}{}, fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			it := &o.Items[i]
			it.OrderID = o.ID
			if err := tx.QueryRow(ctx, `
				INSERT INTO order_items (order_id, product_id, line_no, quantity, unit_price)
				VALUES ($1,$2,$3,$4,$5)
				RETURNING id
			`, o.ID, it.ProductID, it.LineNo, it.Quantity, it.UnitPrice.String()).Scan(&it.ID); err != nil {
				return struct{}{}, fmt.Errorf("insert order item %d: %w", it.LineNo, err)
			}
		}
		return struct{}{}, nil
	})
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

// GetByIDForUpdate locks the order row until the surrounding transaction ends.
func (r *PGRepo) GetByIDForUpdate(ctx context.Context, id int64) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id)
}

// ListByUser returns the user's orders, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_id=$1
		ORDER BY order_date DESC, id DESC
	`, userID)
}

// ListAll returns every order, newest first.
func (r *PGRepo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY order_date DESC, id DESC
	`)
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) getOne(ctx context.Context, sql string, args ...any) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, err
	}
	orders := []Order{*o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills Items of every order with one query.
func (r *PGRepo) loadItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := lo.Map(orders, func(o Order, _ int) int64 { return o.ID })

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, line_no, quantity, unit_price::text
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, line_no
	`, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Item, error) {
		var (
			it    Item
			price string
		)
		if err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.LineNo, &it.Quantity, &price); err != nil {
			return Item{}, fmt.Errorf("scan order item: %w", err)
		}
		unitPrice, err := decimal.NewFromString(price)
		if err != nil {
			return Item{}, fmt.Errorf("parse unit price %q: %w", price, err)
		}
		it.UnitPrice = unitPrice
		return it, nil
	})
	if err != nil {
		return err
	}

	byOrder := lo.GroupBy(items, func(it Item) int64 { return it.OrderID })
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		status string
		total  string
		code   string
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.OrderDate, &total, &code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	var err error
	if o.Status, err = ToStatus(status); err != nil {
		return nil, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	if o.Currency, err = parseCurrency(code); err != nil {
		return nil, err
	}
	return &o, nil
}

func parseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return unit, nil
}
