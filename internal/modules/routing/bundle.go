// README: Bundle value object — an order group plus its realized route.
package routing

import (
	"sort"
	"strings"

	"smartdispatch/internal/modules/order"
)

// Bundle is a candidate order group together with a concrete
// precedence-respecting visit sequence and its distance. The orders may
// include a driver's existing assignments when the bundle is a route
// extension.
type Bundle struct {
	Orders          []*order.Order
	Stops           []order.Stop
	TotalDistanceKm float64
}

// Key is the canonical identity of the order set, independent of ordering.
// Used for dedupe and as the last tie-break in auction selection.
func (b Bundle) Key() string {
	ids := make([]string, len(b.Orders))
	for i, o := range b.Orders {
		ids[i] = string(o.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}
