// internal/storage/store.go
package storage

import "context"

// Logical maps used by the billing state. Each map has its own key
// space inside the backing store.
const (
	MapPlans         = "plans"
	MapPlanIndex     = "plan_ids"
	MapSubscriptions = "subscriptions"
)

// Footprint summarizes what the billing state currently occupies.
type Footprint struct {
	Keys  int64 `json:"keys"`
	Bytes int64 `json:"bytes"`
}

// Store is the persistence surface the billing core runs on: plain
// get/set/delete per logical map, plus one append-only ordered index
// used for plan enumeration. There are no transactions beyond a single
// call; the core serializes requests itself.
type Store interface {
	Get(ctx context.Context, m, key string) ([]byte, bool, error)
	Set(ctx context.Context, m, key string, value []byte) error
	Delete(ctx context.Context, m, key string) error

	// AppendIndex appends id to the ordered index m; ReadIndex returns
	// the ids in insertion order.
	AppendIndex(ctx context.Context, m, id string) error
	ReadIndex(ctx context.Context, m string) ([]string, error)

	Footprint(ctx context.Context) (Footprint, error)
}
