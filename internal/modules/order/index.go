// README: Central in-memory order index; the one owner of order records per run.
package order

import (
	"errors"
	"fmt"

	"smartdispatch/internal/types"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrDuplicate    = errors.New("order already registered")
	ErrInvalidState = errors.New("invalid order state transition")
)

// Index owns every order of a simulation run. Routes and drivers hold IDs
// only; all resolution goes through here.
type Index struct {
	orders  map[types.ID]*Order
	ordered []types.ID
}

func NewIndex() *Index {
	return &Index{orders: make(map[types.ID]*Order)}
}

func (ix *Index) Add(o *Order) error {
	if _, ok := ix.orders[o.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, o.ID)
	}
	ix.orders[o.ID] = o
	ix.ordered = append(ix.ordered, o.ID)
	return nil
}

func (ix *Index) Get(id types.ID) (*Order, error) {
	o, ok := ix.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return o, nil
}

// MustGet is for callers that already validated the ID against the index.
func (ix *Index) MustGet(id types.ID) *Order {
	o, ok := ix.orders[id]
	if !ok {
		panic(fmt.Sprintf("order index: unknown id %s", id))
	}
	return o
}

// All returns orders in registration order.
func (ix *Index) All() []*Order {
	out := make([]*Order, 0, len(ix.ordered))
	for _, id := range ix.ordered {
		out = append(out, ix.orders[id])
	}
	return out
}

func (ix *Index) Len() int {
	return len(ix.orders)
}

// Transition moves an order to the given status, enforcing the state flow.
func (ix *Index) Transition(id types.ID, to Status) error {
	o, err := ix.Get(id)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s for order %s", ErrInvalidState, o.Status, to, id)
	}
	o.Status = to
	return nil
}
