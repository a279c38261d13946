package ill

import (
	"context"
	"sync"
	"time"

	"github.com/stuffbucket/slnpd/internal/slnp"
)

// MemoryBackend keeps orders in memory. It is used when the journal is
// disabled and in tests.
type MemoryBackend struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]*Status
	now    func() time.Time
}

// NewMemoryBackend creates an empty store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{orders: make(map[string]*Status), now: time.Now}
}

// PlaceOrder implements Backend.
func (m *MemoryBackend) PlaceOrder(_ context.Context, o Order) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; ok {
		return Receipt{}, slnp.NewError(slnp.ErrOrderExists, "Order %s already exists", o.ID)
	}
	m.seq++
	st := &Status{
		OrderID: o.ID,
		Number:  FormatNumber(m.seq),
		State:   StateOrdered,
		History: []Event{{At: m.now().UTC(), State: StateOrdered, Note: o.Delivery}},
	}
	m.orders[o.ID] = st
	return Receipt{Number: st.Number, Message: AcceptMessage(o), Libraries: o.Libraries}, nil
}

// OrderStatus implements Backend.
func (m *MemoryBackend) OrderStatus(_ context.Context, orderID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.orders[orderID]
	if !ok {
		return Status{}, slnp.NewError(slnp.ErrOrderNotFound, "Order %s not found", orderID)
	}
	out := *st
	out.History = append([]Event(nil), st.History...)
	return out, nil
}
