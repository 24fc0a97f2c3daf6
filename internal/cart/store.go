package cart

import "context"

// MutateFunc edits a cart in place. Returning an error aborts the write.
type MutateFunc func(c *Cart) error

// Store persists whole-cart snapshots. Mutate must apply fn and write the
// result as a single unit so readers never see a partial update.
type Store interface {
	Load(ctx context.Context, owner string) (*Cart, error)
	Mutate(ctx context.Context, owner string, fn MutateFunc) (*Cart, error)
	Delete(ctx context.Context, owner string) error
}
