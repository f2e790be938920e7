// Package tenant holds the active-context store: the single source of truth
// for which organization a user's session currently operates as.
package tenant

import "context"

// Store persists each user's selected organization id. The store performs no
// validation against real memberships; that is the membership resolver's job.
type Store interface {
	// Get reads the persisted selection. ok is false when no selection exists.
	Get(ctx context.Context, userID string) (orgID uint64, ok bool, err error)

	// Set persists the selection. It must take effect for all requests issued
	// after the call returns.
	Set(ctx context.Context, userID string, orgID uint64) error

	// Clear removes the persisted selection.
	Clear(ctx context.Context, userID string) error
}
