package order

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/currency"

	"github.com/MikeMC777/tienda-ecom/internal/db"
)

type Options struct {
	// MaxAttempts bounds how often a unit of work is run when it keeps
	// losing to concurrent transactions.
	MaxAttempts int
	// Backoff is the base delay between attempts; it doubles per attempt
	// and gets up to one extra Backoff of jitter.
	Backoff  time.Duration
	Currency currency.Unit
	Clock    func() time.Time
}

type Service struct {
	uow       UnitOfWork
	orders    Reader
	assembler *Assembler
	guard     InventoryGuard
	opts      Options
}

func NewService(uow UnitOfWork, orders Reader, opts Options) *Service {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Service{
		uow:       uow,
		orders:    orders,
		assembler: NewAssembler(opts.Currency, opts.Clock),
		opts:      opts,
	}
}

// PlaceOrder validates the request and places the order in one unit of work.
// Either the order with all its items and every stock decrement is committed,
// or nothing is.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var placed *Order
	err := s.retry(ctx, "place order", func() error {
		return s.uow.Run(ctx, func(st Store) error {
			o, err := s.assembler.Assemble(ctx, st, req)
			if err != nil {
				return err
			}
			placed = o
			return nil
		})
	})
	if err != nil {
		log.WithError(err).WithField("user_id", req.UserID).Debug("order placement failed")
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id": placed.ID,
		"user_id":  placed.UserID,
		"items":    len(placed.Items),
		"total":    placed.TotalAmount.String(),
	}).Info("order placed")
	return placed, nil
}

// CancelOrder moves a PENDING order to CANCELLED and puts its stock back.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidRequest)
	}

	var cancelled *Order
	err := s.retry(ctx, "cancel order", func() error {
		return s.uow.Run(ctx, func(st Store) error {
			o, err := st.GetOrderForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if o.Status != StatusPending {
				return fmt.Errorf("%w: order %d is %s", ErrInvalidTransition, id, o.Status)
			}

			// same lock order as placement
			items := slices.Clone(o.Items)
			slices.SortFunc(items, func(a, b Item) int { return cmp.Compare(a.ProductID, b.ProductID) })
			for _, it := range items {
				if err := s.guard.Release(ctx, st, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}

			if err := st.UpdateOrderStatus(ctx, id, StatusCancelled); err != nil {
				return err
			}
			o.Status = StatusCancelled
			cancelled = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithField("order_id", id).Info("order cancelled")
	return cancelled, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// UserOrders is the order history of a user, newest first.
func (s *Service) UserOrders(ctx context.Context, userID int64) ([]Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId must be positive", ErrInvalidRequest)
	}
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) AllOrders(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *Service) retry(ctx context.Context, op string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !db.IsRetryable(err) {
			return err
		}
		if attempt >= s.opts.MaxAttempts {
			log.WithError(err).WithField("attempts", attempt).Warnf("%s: giving up", op)
			return fmt.Errorf("%w: %s: %w", ErrConcurrencyConflict, op, err)
		}

		wait := s.backoff(attempt)
		log.WithError(err).WithFields(log.Fields{"attempt": attempt, "wait": wait}).Debugf("%s: retrying", op)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
}

func (s *Service) backoff(attempt int) time.Duration {
	base := s.opts.Backoff
	if base <= 0 {
		return 0
	}
	return base<<(attempt-1) + rand.N(base)
}
