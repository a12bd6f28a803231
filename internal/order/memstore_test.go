package order

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/MikeMC777/tienda-ecom/internal/db"
	"github.com/MikeMC777/tienda-ecom/internal/product"
	"github.com/MikeMC777/tienda-ecom/internal/user"
)

// memStore is an in-memory UnitOfWork and Reader. Run is serialized and
// restores a snapshot when fn fails, like a rolled back transaction.
type memStore struct {
	mu sync.Mutex

	users    map[int64]*user.User
	products map[int64]product.Product
	orders   map[int64]Order
	nextID   int64

	// conflicts makes the next n Runs fail as if they lost a race.
	conflicts int
	// staleDecrements makes the next n DecrementStock calls report a shortage.
	staleDecrements int
	saveErr         error
	runs            int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*user.User{},
		products: map[int64]product.Product{},
		orders:   map[int64]Order{},
	}
}

func (m *memStore) addUser(id int64) {
	m.users[id] = &user.User{ID: id, Email: "u@example.com", Role: user.RoleCustomer}
}

func (m *memStore) addProduct(p product.Product) {
	m.products[p.ID] = p
}

func (m *memStore) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].StockQuantity
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) Run(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs++
	if m.conflicts > 0 {
		m.conflicts--
		return db.ErrSerialization
	}

	products := maps.Clone(m.products)
	orders := maps.Clone(m.orders)
	nextID := m.nextID

	if err := fn(m); err != nil {
		m.products, m.orders, m.nextID = products, orders, nextID
		return err
	}
	return nil
}

func (m *memStore) GetUser(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) LockProducts(_ context.Context, ids []int64) ([]*product.Product, error) {
	var out []*product.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, &p)
		}
	}
	slices.SortFunc(out, func(a, b *product.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memStore) DecrementStock(_ context.Context, id int64, qty int) (int, error) {
	p, ok := m.products[id]
	if !ok {
		return 0, product.ErrNotFound
	}
	if m.staleDecrements > 0 {
		m.staleDecrements--
		return 0, product.ErrInsufficientStock
	}
	if p.StockQuantity < qty {
		return 0, product.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	m.products[id] = p
	return p.StockQuantity, nil
}

func (m *memStore) IncrementStock(_ context.Context, id int64, qty int) (int, error) {
	p, ok := m.products[id]
	if !ok {
		return 0, product.ErrNotFound
	}
	p.StockQuantity += qty
	m.products[id] = p
	return p.StockQuantity, nil
}

func (m *memStore) SaveOrder(_ context.Context, o *Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.nextID++
	o.ID = m.nextID
	for i := range o.Items {
		m.nextID++
		o.Items[i].ID = m.nextID
		o.Items[i].OrderID = o.ID
	}
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *memStore) GetOrderForUpdate(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, id int64, status Status) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetOrderForUpdate(ctx, id)
}

func (m *memStore) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	all, _ := m.ListAll(ctx)
	return lo.Filter(all, func(o Order, _ int) bool { return o.UserID == userID }), nil
}

func (m *memStore) ListAll(_ context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := lo.Map(lo.Values(m.orders), func(o Order, _ int) Order { return cloneOrder(o) })
	slices.SortFunc(out, func(a, b Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func cloneOrder(o Order) Order {
	o.Items = slices.Clone(o.Items)
	return o
}
